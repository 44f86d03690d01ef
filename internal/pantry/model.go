package pantry

// Ingredient is one entry of the ingredient dictionary. Names are lowercased
// at creation, unique, and never mutated; rows may become orphaned when every
// referencing recipe or pantry row is removed.
type Ingredient struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Entry is a pantry row joined with its ingredient name. At most one pantry
// row exists per ingredient, and a quantity of zero means the row is gone.
type Entry struct {
	ID             string  `db:"id" json:"id"`
	IngredientID   string  `db:"ingredient_id" json:"ingredient_id"`
	IngredientName string  `db:"ingredient_name" json:"ingredient_name"`
	Quantity       float64 `db:"quantity" json:"quantity"`
	Unit           string  `db:"unit" json:"unit"`
}
