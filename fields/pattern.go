package fields

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// MaxPatternLength bounds pattern size so a hostile manifest cannot
	// feed the compiler unbounded input.
	MaxPatternLength = 500
	// patternCacheSize bounds the compiled-pattern cache.
	patternCacheSize = 1024
)

// patternCache holds compiled wildcard patterns. Compilation is cheap
// but rules apply the same pattern lists to every event, so the cache
// removes it from the hot path entirely.
var patternCache *lru.Cache[string, *regexp.Regexp]

func init() {
	cache, err := lru.New[string, *regexp.Regexp](patternCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	patternCache = cache
}

// PatternMatch reports whether s matches a shell-style wildcard pattern
// over the full string, case-sensitively. `*` matches any run of
// characters, `?` exactly one. Empty s never matches (absent values are
// represented as ""); an invalid or oversized pattern never matches.
//
//	PatternMatch("GetSecretValue", "Get*")  → true
//	PatternMatch("PutItem", "Get*")         → false
func PatternMatch(s, pattern string) bool {
	if s == "" {
		return false
	}
	re, ok := compilePattern(pattern)
	if !ok {
		return false
	}
	return re.MatchString(s)
}

// PatternMatchAny reports whether s matches at least one pattern.
func PatternMatchAny(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	for _, p := range patterns {
		if PatternMatch(s, p) {
			return true
		}
	}
	return false
}

func compilePattern(pattern string) (*regexp.Regexp, bool) {
	if len(pattern) > MaxPatternLength {
		return nil, false
	}
	if re, ok := patternCache.Get(pattern); ok {
		return re, true
	}
	re, err := regexp.Compile(translatePattern(pattern))
	if err != nil {
		return nil, false
	}
	patternCache.Add(pattern, re)
	return re, true
}

// translatePattern converts a wildcard pattern into an anchored regexp.
// Everything except `*` and `?` is taken literally, so the result is
// always a linear-time pattern.
func translatePattern(pattern string) string {
	var b strings.Builder
	// (?s) so `*` spans newlines embedded in log fields.
	b.WriteString(`(?s)\A`)
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`\z`)
	return b.String()
}
