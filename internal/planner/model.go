package planner

import "fmt"

// Days is the fixed week, in display order.
var Days = []string{"Lunedì", "Martedì", "Mercoledì", "Giovedì", "Venerdì", "Sabato", "Domenica"}

// MealTypes are the three plannable meals of a day.
var MealTypes = []string{"Colazione", "Pranzo", "Cena"}

var (
	dayIndex  = indexOf(Days)
	mealIndex = indexOf(MealTypes)
)

func indexOf(values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[v] = i
	}
	return m
}

// ValidateSlot checks that day and mealType belong to the fixed enumerations.
func ValidateSlot(day, mealType string) error {
	if _, ok := dayIndex[day]; !ok {
		return fmt.Errorf("invalid plan day %q", day)
	}
	if _, ok := mealIndex[mealType]; !ok {
		return fmt.Errorf("invalid meal type %q", mealType)
	}
	return nil
}

// Entry is a weekly-plan row joined with its recipe name. A (day, mealType)
// slot may hold any number of entries.
type Entry struct {
	ID         string `db:"id" json:"id"`
	Day        string `db:"day" json:"day"`
	MealType   string `db:"meal_type" json:"meal_type"`
	RecipeID   string `db:"recipe_id" json:"recipe_id"`
	RecipeName string `db:"recipe_name" json:"recipe_name"`
}

// slotLess orders entries week-first for stable grouped listings.
func slotLess(a, b Entry) bool {
	if dayIndex[a.Day] != dayIndex[b.Day] {
		return dayIndex[a.Day] < dayIndex[b.Day]
	}
	if mealIndex[a.MealType] != mealIndex[b.MealType] {
		return mealIndex[a.MealType] < mealIndex[b.MealType]
	}
	return a.RecipeName < b.RecipeName
}
