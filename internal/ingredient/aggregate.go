package ingredient

import (
	"sort"
	"strings"
)

// ShoppingIgnoreList holds pantry staples excluded from the shopping list and
// restock computations: water and salt in their common spellings.
var ShoppingIgnoreList = newIgnoreList(
	"acqua", "acqua tiepida", "acqua calda", "acqua fredda", "acqua (tiepida)",
	"sale", "sale fino", "sale grosso", "sale marino",
)

// AvailabilityIgnoreList is the broader list used by the inspiration ranking;
// it additionally excludes pepper and oil. The two lists differ on purpose and
// must not be unified.
var AvailabilityIgnoreList = newIgnoreList(
	"acqua", "acqua tiepida", "acqua calda", "acqua fredda", "acqua (tiepida)",
	"sale", "sale fino", "sale grosso", "pepe", "olio", "sale marino",
)

func newIgnoreList(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Requirement is one (ingredient, quantity, unit) occurrence pulled from a
// recipe in the weekly plan.
type Requirement struct {
	Name     string
	Quantity float64
	Unit     string
}

// Total accumulates the required amount of one ingredient across the plan.
type Total struct {
	DisplayName string
	TotalValue  float64
	BaseUnit    string
}

// Aggregate folds requirements into per-ingredient totals in base units,
// skipping names on the ignore list. Totals are keyed by the exact lowercased
// name, not the sanitized one: two different spellings aggregate separately
// here and only collapse later when matched against the pantry. The base unit
// of a key is fixed by its first occurrence; later occurrences that normalize
// to a different base unit still add their value without reconciliation.
func Aggregate(items []Requirement, ignore map[string]bool) map[string]*Total {
	totals := make(map[string]*Total)
	for _, it := range items {
		key := strings.ToLower(it.Name)
		if ignore[key] {
			continue
		}
		q := NormalizeQuantity(it.Quantity, it.Unit)
		t, ok := totals[key]
		if !ok {
			t = &Total{DisplayName: it.Name, BaseUnit: q.BaseUnit}
			totals[key] = t
		}
		t.TotalValue += q.Value
	}
	return totals
}

// SortedKeys returns the aggregation keys in alphabetical order so callers
// iterate and mutate deterministically.
func SortedKeys(totals map[string]*Total) []string {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
