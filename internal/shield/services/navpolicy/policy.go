package navpolicy

import (
	"net/url"
	"strings"

	logpkg "github.com/shadowglass/webshield/internal/shield/common/log"
	"github.com/shadowglass/webshield/internal/shield/domain"
)

// Blocklist is what the policy needs from the classifier.
type Blocklist interface {
	IsBlocked(url string) bool
}

// Config enumerates the recognized policy options, resolved once at
// construction time.
type Config struct {
	// PseudoWhitelist lists exact pseudo-destinations (for example
	// "about:blank") that sub-frames may still load.
	PseudoWhitelist []string
	// BlockedInternalURLs are exact URLs the shell never navigates to.
	BlockedInternalURLs []string
	// DownloadExtensions overrides DefaultDownloadExtensions when non-nil.
	DownloadExtensions []string
	// UpgradeHTTPS asks for main-frame http:// navigations to be reissued
	// over https instead of being used as-is.
	UpgradeHTTPS bool
}

// Policy is the per-navigation decision state machine. It is stateless
// across calls: every request is evaluated independently against an ordered
// decision tree where the first matching rule wins. Cheap structural checks
// (frame kind, scheme, origin) run before the pattern-matching classifier,
// and download detection runs last so it never preempts an explicit block.
type Policy struct {
	classifier Blocklist
	whitelist  map[string]struct{}
	blockedURL map[string]struct{}
	extensions []string
	upgrade    bool
	logger     logpkg.Logger
}

// New constructs a Policy.
func New(classifier Blocklist, cfg Config, logger logpkg.Logger) *Policy {
	if logger == nil {
		logger = logpkg.NewNoopLogger()
	}
	exts := cfg.DownloadExtensions
	if exts == nil {
		exts = DefaultDownloadExtensions
	}
	p := &Policy{
		classifier: classifier,
		whitelist:  make(map[string]struct{}, len(cfg.PseudoWhitelist)),
		blockedURL: make(map[string]struct{}, len(cfg.BlockedInternalURLs)),
		extensions: make([]string, 0, len(exts)),
		upgrade:    cfg.UpgradeHTTPS,
		logger:     logger,
	}
	for _, w := range cfg.PseudoWhitelist {
		p.whitelist[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for _, b := range cfg.BlockedInternalURLs {
		p.blockedURL[strings.ToLower(strings.TrimSpace(b))] = struct{}{}
	}
	for _, e := range exts {
		p.extensions = append(p.extensions, strings.ToLower(e))
	}
	return p
}

// Decide evaluates one navigation request. Malformed requests fail closed:
// allowing an unparseable navigation is the riskier failure mode.
func (p *Policy) Decide(req domain.NavigationRequest) domain.PolicyDecision {
	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return domain.DecisionIgnore
	}
	lower := strings.ToLower(raw)

	if _, ok := p.blockedURL[lower]; ok {
		return domain.DecisionIgnore
	}

	// Internal pseudo-destinations: the shell's own handlers take them on
	// the main frame; sub-frames only get whitelisted ones.
	if hasPseudoPrefix(lower) {
		if req.Frame == domain.FrameSub {
			if _, ok := p.whitelist[lower]; !ok {
				return domain.DecisionIgnore
			}
		}
		return domain.DecisionUse
	}

	u, err := url.Parse(raw)
	if err != nil {
		return domain.DecisionIgnore
	}
	scheme := strings.ToLower(u.Scheme)

	if scheme != "http" && scheme != "https" {
		// Non-web schemes are the shell's problem on the main frame and
		// nobody's business in a sub-frame.
		if req.Frame == domain.FrameMain {
			return domain.DecisionUse
		}
		return domain.DecisionIgnore
	}

	// Third-party sub-frame fencing: a sub-frame whose host differs from
	// the top-level document's host is suppressed outright.
	if req.Frame == domain.FrameSub && req.TopLevelURL != "" {
		if top, err := url.Parse(req.TopLevelURL); err == nil {
			topHost := top.Hostname()
			reqHost := u.Hostname()
			if topHost != "" && reqHost != "" && !strings.EqualFold(topHost, reqHost) {
				return domain.DecisionIgnore
			}
		}
	}

	if p.classifier.IsBlocked(raw) {
		p.logger.Debug(map[string]any{"url": raw, "frame": req.Frame.String()}, "navigation_blocked")
		return domain.DecisionIgnore
	}

	if p.isDownload(u.Path) {
		return domain.DecisionDownload
	}

	if p.upgrade && req.Frame == domain.FrameMain && scheme == "http" {
		return domain.DecisionUpgradeHTTPS
	}

	return domain.DecisionUse
}

// isDownload reports whether the URL path ends with a known
// downloadable-file extension.
func (p *Policy) isDownload(path string) bool {
	path = strings.ToLower(path)
	for _, ext := range p.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func hasPseudoPrefix(lower string) bool {
	for _, prefix := range pseudoPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// UpgradeURL rewrites an http:// URL to https://. URLs with any other
// scheme are returned unchanged.
func UpgradeURL(rawURL string) string {
	if strings.HasPrefix(strings.ToLower(rawURL), "http://") {
		return "https://" + rawURL[len("http://"):]
	}
	return rawURL
}
