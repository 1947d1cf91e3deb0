package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/shadowglass/webshield/internal/shield/common/log"
	"github.com/shadowglass/webshield/internal/shield/domain"
	"github.com/shadowglass/webshield/internal/shield/repos/verdictcache"
	"github.com/shadowglass/webshield/internal/shield/rules"
)

func newTestClassifier(t *testing.T, lines []string, overrides ...string) (*Classifier, verdictcache.Cache) {
	t.Helper()
	cache, err := verdictcache.New(16)
	require.NoError(t, err)
	c := New(Options{Cache: cache, Overrides: overrides, Logger: logpkg.NewNoopLogger()})
	if lines != nil {
		compiled := rules.CompileAll(lines, logpkg.NewNoopLogger())
		c.ReplaceList(domain.NewFilterList(compiled, 1, time.Now()))
	}
	return c, cache
}

func TestIsBlocked_MatchesRules(t *testing.T) {
	c, _ := newTestClassifier(t, []string{"||ads.example.com^", "/track/pixel"})

	assert.True(t, c.IsBlocked("http://ads.example.com/banner.gif"))
	assert.True(t, c.IsBlocked("https://sub.ads.example.com/x"))
	assert.True(t, c.IsBlocked("https://cdn.other.test/track/pixel"))
	assert.False(t, c.IsBlocked("http://notads.example.com/x"))
	assert.False(t, c.IsBlocked("https://example.com/"))
}

func TestIsBlocked_Deterministic(t *testing.T) {
	c, _ := newTestClassifier(t, []string{"||ads.example.com^"})

	url := "http://ads.example.com/a"
	first := c.IsBlocked(url)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.IsBlocked(url))
	}
}

func TestIsBlocked_UsesCache(t *testing.T) {
	c, cache := newTestClassifier(t, []string{"||ads.example.com^"})

	// Poison the cache: a cached verdict wins over a fresh rule scan.
	cache.Put("http://ads.example.com/a", false)
	assert.False(t, c.IsBlocked("http://ads.example.com/a"))

	cache.Put("http://harmless.test/", true)
	assert.True(t, c.IsBlocked("http://harmless.test/"))
}

func TestIsBlocked_CachesComputedVerdict(t *testing.T) {
	c, cache := newTestClassifier(t, []string{"||ads.example.com^"})

	require.Equal(t, 0, cache.Len())
	c.IsBlocked("http://ads.example.com/a")
	c.IsBlocked("http://fine.test/")
	assert.Equal(t, 2, cache.Len())

	// Verdicts are cached under the original URL, query and all.
	got, ok := cache.Get("http://fine.test/")
	require.True(t, ok)
	assert.False(t, got)
}

func TestIsBlocked_OverrideFastPath(t *testing.T) {
	// No rule list at all: the override list alone blocks.
	c, _ := newTestClassifier(t, nil, "tracker.evil")

	assert.True(t, c.IsBlocked("https://cdn.TRACKER.EVIL/thing.js"))
	assert.False(t, c.IsBlocked("https://example.com/"))
}

func TestIsBlocked_NormalizesURL(t *testing.T) {
	c, _ := newTestClassifier(t, []string{"/ads/banner|"})

	// Query and fragment are stripped before matching, so the trailing
	// anchor still applies.
	assert.True(t, c.IsBlocked("http://x.test/ads/banner?cb=123#frag"))
}

func TestIsBlocked_FailOpenOnBadURL(t *testing.T) {
	c, _ := newTestClassifier(t, []string{"||ads.example.com^"})

	assert.False(t, c.IsBlocked("http://%zz%invalid"))
	assert.False(t, c.IsBlocked("not a url at all"))
}

func TestIsBlocked_Disabled(t *testing.T) {
	c, cache := newTestClassifier(t, []string{"||ads.example.com^"})

	c.Disable()
	assert.False(t, c.Enabled())
	assert.False(t, c.IsBlocked("http://ads.example.com/a"))
	// Disabled path has no cache interaction.
	assert.Equal(t, 0, cache.Len())

	c.Enable()
	assert.True(t, c.IsBlocked("http://ads.example.com/a"))
}

func TestEnableDisable_DoNotClearCache(t *testing.T) {
	c, cache := newTestClassifier(t, []string{"||ads.example.com^"})

	c.IsBlocked("http://ads.example.com/a")
	require.Equal(t, 1, cache.Len())

	c.Disable()
	c.Enable()
	assert.Equal(t, 1, cache.Len())
}

func TestReplaceList_ClearsCache(t *testing.T) {
	c, cache := newTestClassifier(t, []string{"||ads.example.com^"})

	assert.True(t, c.IsBlocked("http://ads.example.com/a"))
	require.NotZero(t, cache.Len())

	// The new list no longer blocks the host; the stale verdict must not
	// survive the swap.
	compiled := rules.CompileAll([]string{"||other.test^"}, logpkg.NewNoopLogger())
	c.ReplaceList(domain.NewFilterList(compiled, 2, time.Now()))

	assert.Equal(t, 0, cache.Len())
	assert.False(t, c.IsBlocked("http://ads.example.com/a"))
}

func TestIsBlocked_EmptyURL(t *testing.T) {
	c, _ := newTestClassifier(t, []string{"||ads.example.com^"})
	assert.False(t, c.IsBlocked(""))
}
