package ingredient

import (
	"regexp"
	"strconv"
	"strings"
)

// Parsed is the (name, quantity, unit) triple extracted from one freeform
// ingredient line.
type Parsed struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// commonUnits is the fixed unit vocabulary recognized in imported ingredient
// lines. Order matters: alternation is first-match, longer spellings of the
// same prefix rely on the word boundary to be reached.
var commonUnits = []string{
	"g", "gr", "grammi", "kg", "chili", "chilo", "l", "ml", "cl", "dl",
	"litri", "litro", "cucchiai", "cucchiaio", "cucchiaino", "cucchiaini",
	"pz", "pezzi", "fette", "foglie", "spicchi", "spicchio",
	"bicchieri", "bicchiere", "vasetti", "vasetto", "pizzico",
	"bustina", "bustine", "panetto", "panetti", "mazzetto", "mazzetti",
}

var (
	nbspEntity  = regexp.MustCompile(`&nbsp;`)
	htmlTag     = regexp.MustCompile(`<[^>]*>?`)
	whitespace  = regexp.MustCompile(`\s+`)
	toTaste     = regexp.MustCompile(`(?i)q\.?b\.?`)
	unitsGroup  = strings.Join(commonUnits, "|")
	leadingQty  = regexp.MustCompile(`(?i)^([\d.,/\s]+)\s*(` + unitsGroup + `)?\b\s*(?:di|d'|del|dei|delle|degli)?\s*(.*)$`)
	trailingQty = regexp.MustCompile(`(?i)^(.*?)\s*\(?([\d.,/\s]+)\s*(` + unitsGroup + `)?\b\)?$`)
)

// ParseLine extracts a (name, quantity, unit) triple from one raw ingredient
// line of imported recipe HTML. It is a best-effort heuristic over Italian
// culinary phrasing: "to taste" markers, a leading quantity with an optional
// unit and linking preposition, a trailing (possibly parenthesized) quantity,
// and finally the whole cleaned text as a count of one.
func ParseLine(raw string) Parsed {
	clean := nbspEntity.ReplaceAllString(raw, " ")
	clean = htmlTag.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)
	clean = whitespace.ReplaceAllString(clean, " ")

	if loc := toTaste.FindStringIndex(clean); loc != nil {
		name := clean[:loc[0]] + clean[loc[1]:]
		name = strings.TrimSpace(strings.TrimSuffix(name, ","))
		return Parsed{Name: name, Quantity: 1, Unit: "q.b."}
	}

	if m := leadingQty.FindStringSubmatch(clean); m != nil {
		unit := m[2]
		if unit == "" {
			unit = "pz"
		}
		return Parsed{
			Name:     strings.TrimSpace(m[3]),
			Quantity: parseNumeric(m[1]),
			Unit:     unit,
		}
	}

	if m := trailingQty.FindStringSubmatch(clean); m != nil {
		unit := m[3]
		if unit == "" {
			unit = "pz"
		}
		name := strings.TrimSpace(strings.TrimSuffix(m[1], ","))
		return Parsed{Name: name, Quantity: parseNumeric(m[2]), Unit: unit}
	}

	return Parsed{Name: clean, Quantity: 1, Unit: "pz"}
}

var leadingFloat = regexp.MustCompile(`^\d+(\.\d+)?`)

// parseNumeric reads a quantity written with a comma or dot decimal separator
// or as an a/b fraction. Unparsable input defaults to 1.
func parseNumeric(raw string) float64 {
	s := strings.Replace(raw, ",", ".", 1)
	s = whitespace.ReplaceAllString(s, "")

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		num, errN := strconv.ParseFloat(parts[0], 64)
		den, errD := strconv.ParseFloat(parts[1], 64)
		if errN != nil || errD != nil || den == 0 {
			return 1
		}
		return num / den
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	// Mimic lenient float parsing: take the leading numeric prefix if the
	// whole string does not parse (e.g. "1.2.3").
	if m := leadingFloat.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}
	return 1
}
