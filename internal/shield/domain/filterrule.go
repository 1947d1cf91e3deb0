package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// FilterRule represents a single compiled blocking rule derived from one
// line of Adblock-Plus-style filter-list syntax.
//
// Notes:
// - Pattern is the compiled matcher; it is never mutated after construction.
// - Raw preserves the verbatim source line so a rule set can round-trip
//   through the plain-text cache file without loss.
type FilterRule struct {
	Pattern *regexp.Regexp // compiled matcher
	Raw     string         // verbatim filter-list line the rule came from
}

// NewFilterRule constructs a FilterRule and validates its fields.
func NewFilterRule(pattern *regexp.Regexp, raw string) (FilterRule, error) {
	r := FilterRule{
		Pattern: pattern,
		Raw:     strings.TrimSpace(raw),
	}
	if err := r.Validate(); err != nil {
		return FilterRule{}, err
	}
	return r, nil
}

// Validate checks the FilterRule for required fields.
func (r FilterRule) Validate() error {
	if r.Pattern == nil {
		return fmt.Errorf("rule pattern must not be nil")
	}
	if r.Raw == "" {
		return fmt.Errorf("rule source text must not be empty")
	}
	return nil
}

// Matches reports whether the rule matches the normalized URL target.
func (r FilterRule) Matches(target string) bool {
	return r.Pattern.MatchString(target)
}
