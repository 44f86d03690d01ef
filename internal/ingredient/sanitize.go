package ingredient

import (
	"regexp"
	"strings"
)

var parenthesized = regexp.MustCompile(`\(.*\)`)

// SanitizeName reduces an ingredient name to lowercase ASCII alphanumerics for
// fuzzy identity comparison. Parenthesized substrings are dropped first, then
// every character outside [a-z0-9] is deleted. Accented letters are deleted,
// not transliterated.
func SanitizeName(name string) string {
	s := strings.ToLower(name)
	s = parenthesized.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
