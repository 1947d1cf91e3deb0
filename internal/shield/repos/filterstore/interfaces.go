package filterstore

import (
	"context"

	"github.com/shadowglass/webshield/internal/shield/gateways/fetch"
)

// Fetcher downloads one filter list. Implemented by the fetch gateway;
// faked in tests.
type Fetcher interface {
	FetchLines(ctx context.Context, url string, cond fetch.Conditional) (lines []string, meta fetch.Meta, notModified bool, err error)
}

// SourceMeta is the per-source fetch state persisted between refreshes.
// Lines holds the last successful body so a 304 Not Modified answer can be
// replayed without re-downloading.
type SourceMeta struct {
	ETag          string   `json:"etag,omitempty"`
	LastModified  string   `json:"last_modified,omitempty"`
	LastFetchUnix int64    `json:"last_fetch_unix"`
	Lines         []string `json:"lines,omitempty"`
}

// MetaStore persists SourceMeta keyed by source URL.
type MetaStore interface {
	Get(url string) (SourceMeta, bool, error)
	Put(url string, m SourceMeta) error
	Delete(url string) error
	Close() error
}
