package filterstore

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shadowglass/webshield/internal/shield/common/clock"
	logpkg "github.com/shadowglass/webshield/internal/shield/common/log"
	"github.com/shadowglass/webshield/internal/shield/domain"
	"github.com/shadowglass/webshield/internal/shield/gateways/fetch"
	"github.com/shadowglass/webshield/internal/shield/rules"
)

const (
	// DefaultTTL is how long the local cache file stays fresh.
	DefaultTTL = 24 * time.Hour
	// DefaultFetchTimeout bounds a single source download.
	DefaultFetchTimeout = 10 * time.Second
	// maxConcurrentFetches bounds refresh fan-out.
	maxConcurrentFetches = 5
)

// Store owns the set of filter-list sources, refreshes them, persists the
// flat cache file, and produces compiled FilterLists.
//
// Concurrency model: fetches run on worker goroutines, but a new FilterList
// is only ever handed to the single owner goroutine draining Updates().
// Each refresh is tagged with a monotonically increasing generation; a
// refresh superseded before it completes is discarded rather than applied.
type Store struct {
	cachePath string
	ttl       time.Duration
	timeout   time.Duration
	fetcher   Fetcher
	meta      MetaStore
	clock     clock.Clock
	logger    logpkg.Logger

	mu      sync.Mutex // guards sources
	sources []string

	gen     atomic.Uint64
	pubMu   sync.Mutex // serializes cache write + delivery against generation bumps
	updates chan *domain.FilterList
}

// compileAll indirection exists so refresh interleavings can be exercised in
// tests.
var compileAll = rules.CompileAll

// Options configures a Store. Fetcher and CachePath are required; zero
// values elsewhere fall back to defaults.
type Options struct {
	Sources      []string
	CachePath    string
	TTL          time.Duration
	FetchTimeout time.Duration
	Fetcher      Fetcher
	Meta         MetaStore
	Clock        clock.Clock
	Logger       logpkg.Logger
}

// New constructs a Store.
func New(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Meta == nil {
		opts.Meta = NopMetaStore{}
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNoopLogger()
	}
	srcs := make([]string, len(opts.Sources))
	copy(srcs, opts.Sources)
	return &Store{
		cachePath: opts.CachePath,
		ttl:       opts.TTL,
		timeout:   opts.FetchTimeout,
		fetcher:   opts.Fetcher,
		meta:      opts.Meta,
		clock:     opts.Clock,
		logger:    opts.Logger,
		sources:   srcs,
		updates:   make(chan *domain.FilterList, 1),
	}
}

// Updates delivers freshly compiled FilterLists. Exactly one goroutine (the
// owner) must drain it and swap the active list.
func (s *Store) Updates() <-chan *domain.FilterList {
	return s.updates
}

// AddSource registers a source URL. It does not trigger a refresh.
func (s *Store) AddSource(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.sources {
		if u == url {
			return
		}
	}
	s.sources = append(s.sources, url)
}

// RemoveSource deletes a source URL and its persisted fetch state. It does
// not trigger a refresh.
func (s *Store) RemoveSource(url string) {
	s.mu.Lock()
	for i, u := range s.sources {
		if u == url {
			s.sources = append(s.sources[:i], s.sources[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	if err := s.meta.Delete(url); err != nil {
		s.logger.Warn(map[string]any{"url": url, "error": err.Error()}, "source_meta_delete_failed")
	}
}

// Sources returns a copy of the configured source URLs.
func (s *Store) Sources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sources))
	copy(out, s.sources)
	return out
}

// Load produces the initial FilterList. When the local cache file is
// younger than the TTL its lines are compiled and returned synchronously.
// Otherwise a background refresh is started and Load returns nil; the new
// list arrives on Updates() and the previous list (if any) stays active
// until then.
func (s *Store) Load(ctx context.Context) (*domain.FilterList, error) {
	if fi, err := os.Stat(s.cachePath); err == nil && s.clock.Now().Sub(fi.ModTime()) < s.ttl {
		lines, err := readCacheFile(s.cachePath)
		if err == nil {
			compiled := compileAll(lines, s.logger)
			gen := s.gen.Add(1)
			s.logger.Info(map[string]any{"rules": len(compiled), "cache": s.cachePath}, "filter_cache_loaded")
			return domain.NewFilterList(compiled, gen, fi.ModTime()), nil
		}
		s.logger.Warn(map[string]any{"cache": s.cachePath, "error": err.Error()}, "filter_cache_unreadable")
	}
	s.Refresh(ctx)
	return nil, nil
}

// Refresh starts an asynchronous refresh of all configured sources. Any
// refresh still in flight is superseded and its result discarded.
func (s *Store) Refresh(ctx context.Context) {
	gen := s.gen.Add(1)
	srcs := s.Sources()
	go s.refresh(ctx, gen, srcs)
}

// refresh fans out one fetch per source, merges the successes, compiles,
// persists the cache file, and delivers the new list unless a newer refresh
// has started in the meantime.
func (s *Store) refresh(ctx context.Context, gen uint64, srcs []string) {
	results := make([][]string, len(srcs))

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentFetches)
	for i, url := range srcs {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			lines, err := s.fetchSource(fctx, url)
			if err != nil {
				// One failing source contributes nothing; the refresh goes on.
				s.logger.Warn(map[string]any{"url": url, "error": err.Error()}, "source_fetch_failed")
				return nil
			}
			results[i] = lines
			s.logger.Debug(map[string]any{"url": url, "lines": len(lines)}, "source_fetched")
			return nil
		})
	}
	_ = g.Wait()

	if gen != s.gen.Load() {
		s.logger.Debug(map[string]any{"generation": gen}, "refresh_superseded")
		return
	}

	var merged []string
	for _, lines := range results {
		merged = append(merged, lines...)
	}
	if len(merged) == 0 {
		// Keep the previous list and cache file when every source failed.
		s.logger.Warn(map[string]any{"sources": len(srcs)}, "refresh_produced_no_rules")
		return
	}

	compiled := compileAll(merged, s.logger)

	// Compiling a large merge takes long enough for another refresh to start,
	// so the generation is re-checked under the publish lock: a stale list
	// must neither reach the owner nor clobber the cache file after a newer
	// generation has published.
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if gen != s.gen.Load() {
		s.logger.Debug(map[string]any{"generation": gen}, "refresh_superseded")
		return
	}
	list := domain.NewFilterList(compiled, gen, s.clock.Now())

	if err := writeCacheFile(s.cachePath, merged); err != nil {
		// Swallowed: the next run simply refetches.
		s.logger.Warn(map[string]any{"cache": s.cachePath, "error": err.Error()}, "filter_cache_write_failed")
	}

	s.logger.Info(map[string]any{
		"generation": gen,
		"sources":    len(srcs),
		"lines":      len(merged),
		"rules":      len(compiled),
	}, "filter_list_refreshed")
	s.deliver(list)
}

// deliver hands the list to the owner goroutine, replacing any pending
// not-yet-consumed list so the owner always sees the newest one. Callers hold
// pubMu, so deliveries are totally ordered and a stale list can only ever
// precede the one that supersedes it.
func (s *Store) deliver(list *domain.FilterList) {
	for {
		select {
		case s.updates <- list:
			return
		default:
			select {
			case <-s.updates:
			default:
			}
		}
	}
}

// fetchSource downloads one source, sending conditional headers when a
// replayable previous body exists, and records the new fetch state.
func (s *Store) fetchSource(ctx context.Context, url string) ([]string, error) {
	var cond fetch.Conditional
	prev, ok, err := s.meta.Get(url)
	if err != nil {
		s.logger.Debug(map[string]any{"url": url, "error": err.Error()}, "source_meta_read_failed")
		ok = false
	}
	if ok && len(prev.Lines) > 0 {
		cond.ETag = prev.ETag
		cond.LastModified = prev.LastModified
	}

	lines, meta, notModified, err := s.fetcher.FetchLines(ctx, url, cond)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().Unix()
	if notModified {
		prev.LastFetchUnix = now
		if err := s.meta.Put(url, prev); err != nil {
			s.logger.Debug(map[string]any{"url": url, "error": err.Error()}, "source_meta_write_failed")
		}
		return prev.Lines, nil
	}

	next := SourceMeta{
		ETag:          meta.ETag,
		LastModified:  meta.LastModified,
		LastFetchUnix: now,
		Lines:         lines,
	}
	if err := s.meta.Put(url, next); err != nil {
		s.logger.Debug(map[string]any{"url": url, "error": err.Error()}, "source_meta_write_failed")
	}
	return lines, nil
}
