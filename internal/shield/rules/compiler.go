package rules

import (
	"fmt"
	"regexp"
	"strings"

	logpkg "github.com/shadowglass/webshield/internal/shield/common/log"
	"github.com/shadowglass/webshield/internal/shield/domain"
)

// separatorClass is the expansion of the ABP "^" placeholder: any single
// character that cannot appear in a hostname, path segment, or percent
// escape.
const separatorClass = `[^A-Za-z0-9_\-%.]`

// domainAnchorPrefix matches http or https, optionally followed by one
// subdomain label, so "||ads.example.com" covers both the apex and
// "sub.ads.example.com".
const domainAnchorPrefix = `^https?://([a-z0-9-]+\.)?`

// Compile turns one raw filter-list line into a compiled FilterRule.
//
// Supported syntax is the ABP subset used by the browser blocklists:
//   - "||prefix"  domain anchor
//   - leading "|" start-of-string anchor
//   - trailing "|" end-of-string anchor
//   - "*"         any sequence
//   - "^"         separator placeholder
//
// Blank lines, "!" comments, cosmetic rules ("##", "#@#") and exception
// rules ("@@") return a *SkipError. A line whose resulting pattern cannot
// be compiled returns the wrapped compile error. Compilation is
// deterministic: the same line always yields the same matcher.
func Compile(line string) (domain.FilterRule, error) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return domain.FilterRule{}, &SkipError{Reason: SkipBlank}
	case strings.HasPrefix(trimmed, "!"):
		return domain.FilterRule{}, &SkipError{Reason: SkipComment}
	case strings.HasPrefix(trimmed, "@@"):
		return domain.FilterRule{}, &SkipError{Reason: SkipException}
	case strings.Contains(trimmed, "##") || strings.Contains(trimmed, "#@#") || strings.Contains(trimmed, "@@"):
		return domain.FilterRule{}, &SkipError{Reason: SkipCosmetic}
	}

	expr, err := buildPattern(trimmed)
	if err != nil {
		return domain.FilterRule{}, fmt.Errorf("malformed rule %q: %w", trimmed, err)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return domain.FilterRule{}, fmt.Errorf("malformed rule %q: %w", trimmed, err)
	}
	return domain.NewFilterRule(re, trimmed)
}

// buildPattern translates the ABP line into a regular expression source
// string. Anchors are peeled off the literal text first, everything left is
// meta-escaped, and only then are the wildcard and separator placeholders
// substituted, so list content cannot inject pattern syntax.
func buildPattern(raw string) (string, error) {
	body := raw
	var domainAnchor, startAnchor, endAnchor bool

	if strings.HasPrefix(body, "||") {
		domainAnchor = true
		body = body[2:]
	} else if strings.HasPrefix(body, "|") {
		startAnchor = true
		body = body[1:]
	}
	if strings.HasSuffix(body, "|") {
		endAnchor = true
		body = body[:len(body)-1]
	}
	if body == "" {
		return "", fmt.Errorf("empty pattern after anchors")
	}

	quoted := regexp.QuoteMeta(body)
	quoted = strings.ReplaceAll(quoted, `\*`, `.*`)
	quoted = strings.ReplaceAll(quoted, `\^`, separatorClass)
	// Interior pipes carry no meaning in this subset; drop them.
	quoted = strings.ReplaceAll(quoted, `\|`, "")

	var b strings.Builder
	b.WriteString("(?i)")
	switch {
	case domainAnchor:
		b.WriteString(domainAnchorPrefix)
	case startAnchor:
		b.WriteByte('^')
	}
	b.WriteString(quoted)
	if endAnchor {
		b.WriteByte('$')
	}
	return b.String(), nil
}

// CompileAll compiles every line it can and drops the rest. Skipped lines
// are logged at debug, malformed lines at warn; neither aborts the batch.
func CompileAll(lines []string, logger logpkg.Logger) []domain.FilterRule {
	out := make([]domain.FilterRule, 0, len(lines))
	for i, line := range lines {
		rule, err := Compile(line)
		if err != nil {
			if skip, ok := err.(*SkipError); ok {
				logger.Debug(map[string]any{"line": i + 1, "reason": skip.Reason.String()}, "rule_skipped")
			} else {
				logger.Warn(map[string]any{"line": i + 1, "error": err.Error()}, "rule_rejected")
			}
			continue
		}
		out = append(out, rule)
	}
	return out
}
