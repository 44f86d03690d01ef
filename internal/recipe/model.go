package recipe

import "time"

// Recipe is a stored recipe. Tags are a comma-joined list of lowercase
// keywords; SourceURL is set only for imported recipes and unique when
// present.
type Recipe struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	SourceURL *string   `db:"source_url" json:"source_url,omitempty"`
	Tags      string    `db:"tags" json:"tags"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Line is one recipe ingredient joined with its dictionary name. A recipe may
// reference the same ingredient more than once; no uniqueness is enforced.
type Line struct {
	ID           string  `db:"id" json:"id"`
	RecipeID     string  `db:"recipe_id" json:"recipe_id"`
	IngredientID string  `db:"ingredient_id" json:"ingredient_id"`
	Name         string  `db:"ingredient_name" json:"ingredient_name"`
	Quantity     float64 `db:"quantity" json:"quantity"`
	Unit         string  `db:"unit" json:"unit"`
}

// WithIngredients bundles a recipe with its ingredient lines.
type WithIngredients struct {
	Recipe
	Ingredients []Line `json:"ingredients"`
}
