package verdictcache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a bounded LRU mapping URL -> blocked verdict. A cached verdict
// is only valid against the filter list it was computed from, so the owner
// clears the cache whenever the active list is replaced.
type Cache interface {
	Get(url string) (bool, bool)
	Put(url string, blocked bool)
	Len() int
	Clear()
	Stats() (hits, misses, evictions uint64)
}

// verdictCache is an LRU-backed Cache with basic hit/miss/eviction metrics.
type verdictCache struct {
	lru       *lru.Cache[string, bool]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is a no-op Cache used when size <= 0.
type disabledCache struct{}

// newLRU indirection exists so construction failures can be exercised in tests.
var newLRU = func(size int, onEvict func(string, bool)) (*lru.Cache[string, bool], error) {
	return lru.NewWithEvict(size, onEvict)
}

// New creates a Cache with the given capacity. If size <= 0, a disabled
// no-op cache is returned that always misses and tracks no metrics.
func New(size int) (Cache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	var vc verdictCache
	// NewWithEvict observes evictions, including Clear-induced ones.
	cache, err := newLRU(size, func(string, bool) {
		atomic.AddUint64(&vc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	vc.lru = cache
	return &vc, nil
}

// Get looks up a verdict by URL. A hit promotes the key to
// most-recently-used.
func (c *verdictCache) Get(url string) (bool, bool) {
	if val, ok := c.lru.Get(url); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	return false, false
}

// Put stores a verdict by URL, evicting the least-recently-used entry when
// the cache is full.
func (c *verdictCache) Put(url string, blocked bool) {
	c.lru.Add(url, blocked)
}

// Len returns the number of entries in the cache.
func (c *verdictCache) Len() int { return c.lru.Len() }

// Clear removes all entries. Evictions are counted via the eviction callback.
func (c *verdictCache) Clear() { c.lru.Purge() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *verdictCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

// disabledCache implementation

func (d *disabledCache) Get(string) (bool, bool) { return false, false }

func (d *disabledCache) Put(string, bool) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Clear() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ Cache = (*verdictCache)(nil)
var _ Cache = (*disabledCache)(nil)
