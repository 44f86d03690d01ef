// Package ingredient contains the quantity normalization, name matching and
// aggregation engine shared by the shopping list, inspiration ranking and the
// pantry consumption/restock operations.
package ingredient

import (
	"strconv"
	"strings"
)

// Quantity is a quantity expressed in a comparable base unit: grams for mass,
// milliliters for volume, or the original unit for count-like measures.
type Quantity struct {
	Value    float64 `json:"value"`
	BaseUnit string  `json:"base_unit"`
}

// NormalizeQuantity converts a (quantity, unit) pair into a base-unit quantity.
// Unrecognized units pass through unchanged; the unit set is open-world since
// recipes use arbitrary count units ("pz", "fette", "spicchi"). An empty unit
// defaults to "pz".
func NormalizeQuantity(quantity float64, unit string) Quantity {
	u := strings.ToLower(strings.TrimSpace(unit))

	switch u {
	// Mass -> grams
	case "kg", "chili", "chilo":
		return Quantity{Value: quantity * 1000, BaseUnit: "g"}
	case "g", "gr", "grammi":
		return Quantity{Value: quantity, BaseUnit: "g"}

	// Volume -> milliliters, spoons included as culinary standards
	case "l", "litro", "litri":
		return Quantity{Value: quantity * 1000, BaseUnit: "ml"}
	case "ml", "millilitri":
		return Quantity{Value: quantity, BaseUnit: "ml"}
	case "cl":
		return Quantity{Value: quantity * 10, BaseUnit: "ml"}
	case "dl":
		return Quantity{Value: quantity * 100, BaseUnit: "ml"}
	case "cucchiaio", "cucchiai":
		return Quantity{Value: quantity * 15, BaseUnit: "ml"}
	case "cucchiaino", "cucchiaini":
		return Quantity{Value: quantity * 5, BaseUnit: "ml"}
	}

	if u == "" {
		u = "pz"
	}
	return Quantity{Value: quantity, BaseUnit: u}
}

// FormatOutput renders a base-unit value for display: grams at or above 1000
// become kilograms, milliliters become liters, everything else keeps its unit
// with at most one decimal.
func FormatOutput(value float64, baseUnit string) string {
	if baseUnit == "g" && value >= 1000 {
		return trimDecimal(value/1000, 2) + " kg"
	}
	if baseUnit == "ml" && value >= 1000 {
		return trimDecimal(value/1000, 2) + " l"
	}
	return trimDecimal(value, 1) + " " + baseUnit
}

func trimDecimal(value float64, places int) string {
	s := strconv.FormatFloat(value, 'f', places, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}
