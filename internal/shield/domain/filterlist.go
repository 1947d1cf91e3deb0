package domain

import "time"

// FilterList is the active compiled rule set produced by a filter store
// load or refresh. It is replaced wholesale on every refresh and never
// mutated in place, so concurrent readers holding a pointer to a previous
// list stay safe without locking.
type FilterList struct {
	rules     []FilterRule
	version   uint64
	fetchedAt time.Time
}

// NewFilterList constructs an immutable FilterList. The rule slice is
// copied so the caller cannot alias the internal sequence.
func NewFilterList(rules []FilterRule, version uint64, fetchedAt time.Time) *FilterList {
	cp := make([]FilterRule, len(rules))
	copy(cp, rules)
	return &FilterList{
		rules:     cp,
		version:   version,
		fetchedAt: fetchedAt,
	}
}

// Rules returns the compiled rules in insertion order. Callers must treat
// the returned slice as read-only.
func (l *FilterList) Rules() []FilterRule { return l.rules }

// Len returns the number of compiled rules.
func (l *FilterList) Len() int { return len(l.rules) }

// Version returns the refresh generation this list was built from.
func (l *FilterList) Version() uint64 { return l.version }

// FetchedAt returns when the underlying list text was obtained.
func (l *FilterList) FetchedAt() time.Time { return l.fetchedAt }

// RawLines returns the verbatim source text of every rule, one line per
// rule, suitable for writing back to the plain-text cache file.
func (l *FilterList) RawLines() []string {
	out := make([]string, 0, len(l.rules))
	for _, r := range l.rules {
		out = append(out, r.Raw)
	}
	return out
}
