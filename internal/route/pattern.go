package route

import (
	"regexp"
	"strings"
)

// Pattern is a compiled wildcard-style route pattern. The only wildcard
// class is '*', which matches any run of characters (including '/').
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// Compile turns a wildcard pattern string into a predicate over paths.
func Compile(pattern string) Pattern {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return Pattern{raw: pattern, re: regexp.MustCompile(b.String())}
}

// Match reports whether path satisfies the pattern.
func (p Pattern) Match(path string) bool {
	return p.re.MatchString(path)
}

// String returns the original pattern text.
func (p Pattern) String() string {
	return p.raw
}
