package ingredient

import "strings"

// MatchIndex finds the pantry candidate matching a required ingredient name.
// Names are compared in sanitized form; a candidate matches on equality or on
// substring containment in either direction, so "pomodoro" matches a pantry
// entry named "pomodorini" and vice versa. The first match in slice order wins,
// there is no ranking among multiple matches. Returns -1 when nothing matches.
func MatchIndex(requiredName string, candidateNames []string) int {
	req := SanitizeName(requiredName)
	for i, name := range candidateNames {
		c := SanitizeName(name)
		if c == req || strings.Contains(c, req) || strings.Contains(req, c) {
			return i
		}
	}
	return -1
}
