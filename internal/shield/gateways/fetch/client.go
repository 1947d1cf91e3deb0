package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxListBytes caps a single filter-list download so a misbehaving source
// cannot exhaust memory. It is a var so the limit can be lowered in tests.
var maxListBytes int64 = 50 * 1024 * 1024

// Conditional carries validators from a previous fetch of the same source,
// sent as If-None-Match / If-Modified-Since.
type Conditional struct {
	ETag         string
	LastModified string
}

// Meta carries the validators returned by the server for the next
// conditional fetch.
type Meta struct {
	ETag         string
	LastModified string
}

// Client downloads filter-list text over HTTP with a bounded timeout.
type Client struct {
	http *http.Client
}

// New constructs a Client whose requests time out after timeout.
func New(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// FetchLines downloads one filter list and returns its rule lines, trimmed,
// with blank lines and "!" comments already dropped. When the source
// answers 304 Not Modified, notModified is true and lines is nil. Any other
// non-200 status is an error.
func (c *Client) FetchLines(ctx context.Context, url string, cond Conditional) (lines []string, meta Meta, notModified bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Meta{}, false, err
	}
	if cond.ETag != "" {
		req.Header.Set("If-None-Match", cond.ETag)
	}
	if cond.LastModified != "" {
		req.Header.Set("If-Modified-Since", cond.LastModified)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Meta{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, Meta{}, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Meta{}, false, fmt.Errorf("bad status: %s", resp.Status)
	}

	// One byte of headroom distinguishes a body of exactly maxListBytes
	// (N drains to 1) from an oversized one (N drains to 0).
	limited := &io.LimitedReader{R: resp.Body, N: maxListBytes + 1}
	lines, err = readRuleLines(limited)
	if err != nil {
		return nil, Meta{}, false, err
	}
	if limited.N == 0 {
		return nil, Meta{}, false, fmt.Errorf("list exceeds %d byte limit", maxListBytes)
	}

	meta = Meta{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	return lines, meta, false, nil
}

// readRuleLines scans the body keeping only lines that can carry a rule.
func readRuleLines(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
