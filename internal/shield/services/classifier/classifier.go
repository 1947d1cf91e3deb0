package classifier

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"

	logpkg "github.com/shadowglass/webshield/internal/shield/common/log"
	"github.com/shadowglass/webshield/internal/shield/domain"
	"github.com/shadowglass/webshield/internal/shield/repos/verdictcache"
)

// Classifier answers the blocked/allowed question for one URL by combining
// the active FilterList with a bounded verdict cache and a small
// always-blocked override list.
//
// Concurrency model: IsBlocked, Enable, Disable and ReplaceList are all
// invoked on the single owner goroutine (the UI/event loop in the browser
// shell), so no internal locking is needed on this path. Filter refreshes
// happen elsewhere and reach the classifier only through ReplaceList.
type Classifier struct {
	enabled   bool
	list      *domain.FilterList
	cache     verdictcache.Cache
	overrides []string // lowercase substrings, matched before rule scan
	logger    logpkg.Logger
}

// Options configures a Classifier. Cache is required.
type Options struct {
	Cache     verdictcache.Cache
	Overrides []string
	Logger    logpkg.Logger
}

// New constructs an enabled Classifier with no active filter list.
func New(opts Options) *Classifier {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	overrides := make([]string, 0, len(opts.Overrides))
	for _, o := range opts.Overrides {
		o = strings.ToLower(strings.TrimSpace(o))
		if o != "" {
			overrides = append(overrides, o)
		}
	}
	return &Classifier{
		enabled:   true,
		cache:     opts.Cache,
		overrides: overrides,
		logger:    opts.Logger,
	}
}

// Enable turns filtering on. It does not clear the verdict cache.
func (c *Classifier) Enable() { c.enabled = true }

// Disable turns filtering off. It does not clear the verdict cache.
func (c *Classifier) Disable() { c.enabled = false }

// Enabled reports whether filtering is on.
func (c *Classifier) Enabled() bool { return c.enabled }

// ReplaceList swaps in a freshly compiled FilterList and invalidates every
// cached verdict, since a verdict is only valid against the list it was
// computed from.
func (c *Classifier) ReplaceList(list *domain.FilterList) {
	c.list = list
	c.cache.Clear()
	if list != nil {
		c.logger.Info(map[string]any{"rules": list.Len(), "version": list.Version()}, "filter_list_active")
	}
}

// List returns the active FilterList, nil before the first load completes.
func (c *Classifier) List() *domain.FilterList { return c.list }

// IsBlocked classifies url against the active rule set. Internal parse
// failures fail open: blocking navigation infrastructure must never
// hard-fail on a malformed input URL.
func (c *Classifier) IsBlocked(rawURL string) bool {
	if !c.enabled || rawURL == "" {
		return false
	}

	if verdict, ok := c.cache.Get(rawURL); ok {
		return verdict
	}

	// Fast path: substring scan of the override list beats compiling the
	// URL down to its normalized form.
	blocked := false
	if len(c.overrides) > 0 {
		lower := strings.ToLower(rawURL)
		for _, token := range c.overrides {
			if strings.Contains(lower, token) {
				blocked = true
				break
			}
		}
	}

	if !blocked {
		if target, ok := normalizeURL(rawURL); ok {
			if c.list != nil {
				for _, rule := range c.list.Rules() {
					if rule.Matches(target) {
						blocked = true
						break
					}
				}
			}
		}
	}

	c.cache.Put(rawURL, blocked)
	return blocked
}

// normalizeURL reduces a URL to lowercase "scheme://host/path" with query
// and fragment stripped and the host in ASCII form. Returns false when the
// URL cannot be parsed, which callers treat as not blocked.
func normalizeURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	host := u.Hostname()
	if ascii, err := idna.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	return strings.ToLower(u.Scheme + "://" + host + u.Path), true
}
