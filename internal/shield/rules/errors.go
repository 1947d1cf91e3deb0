package rules

import "fmt"

// SkipReason classifies why a filter-list line produced no rule without
// being an error: the line is either empty or uses syntax that is
// deliberately unsupported (cosmetic and exception rules).
type SkipReason uint8

const (
	// SkipBlank marks an empty or whitespace-only line.
	SkipBlank SkipReason = iota
	// SkipComment marks a "!" comment line.
	SkipComment
	// SkipCosmetic marks element-hiding syntax ("##" / "#@#"), unsupported.
	SkipCosmetic
	// SkipException marks an "@@" exception rule, unsupported.
	SkipException
)

// String returns a stable string representation of the skip reason.
func (r SkipReason) String() string {
	switch r {
	case SkipBlank:
		return "blank"
	case SkipComment:
		return "comment"
	case SkipCosmetic:
		return "cosmetic"
	case SkipException:
		return "exception"
	default:
		return fmt.Sprintf("SkipReason(%d)", r)
	}
}

// SkipError reports that a line was intentionally not compiled. It is a
// diagnostic, not a failure: callers decide whether to log it.
type SkipError struct {
	Reason SkipReason
}

func (e *SkipError) Error() string {
	return "rule skipped: " + e.Reason.String()
}

// IsSkip reports whether err marks an intentionally skipped line.
func IsSkip(err error) bool {
	_, ok := err.(*SkipError)
	return ok
}
