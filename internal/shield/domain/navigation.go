package domain

import (
	"fmt"
	"strings"
)

// FrameKind identifies the navigable context a request targets.
//
// main - the top-level document
// sub  - an embedded frame within a page
type FrameKind uint8

const (
	// FrameMain is the top-level document frame.
	FrameMain FrameKind = iota
	// FrameSub is an embedded sub-frame.
	FrameSub
)

// String returns a stable string representation of the frame kind.
func (k FrameKind) String() string {
	switch k {
	case FrameMain:
		return "main"
	case FrameSub:
		return "sub"
	default:
		return fmt.Sprintf("FrameKind(%d)", k)
	}
}

// NavigationRequest describes one navigation attempt as reported by the
// browser shell. It is consumed once per policy decision and not persisted.
type NavigationRequest struct {
	URL         string    // requested URL, may be empty on malformed actions
	Frame       FrameKind // main or sub
	TopLevelURL string    // URL of the top-level document, empty when unknown
}

// Scheme returns the lowercased scheme prefix of the requested URL, without
// the trailing colon. Pseudo-destinations that carry no colon (for example
// "_blank") are returned whole so policy can match them directly.
func (r NavigationRequest) Scheme() string {
	u := strings.ToLower(strings.TrimSpace(r.URL))
	if i := strings.IndexByte(u, ':'); i >= 0 {
		return u[:i]
	}
	return u
}
