package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dispensa/internal/database"
	"dispensa/internal/ingredient"
	"dispensa/internal/pantry"
	"dispensa/internal/recipe"
)

type fixture struct {
	db      *database.DB
	pantry  *pantry.Repository
	recipes *recipe.Repository
	plans   *Repository
	rc      *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTest(t)
	f := &fixture{
		db:      db,
		pantry:  pantry.NewRepository(db),
		recipes: recipe.NewRepository(db),
		plans:   NewRepository(db),
	}
	f.rc = NewReconciler(db, f.plans, f.pantry, f.recipes, nil, zap.NewNop())
	return f
}

func (f *fixture) planRecipe(t *testing.T, name string, lines ...ingredient.Parsed) recipe.Recipe {
	t.Helper()
	rec, err := f.recipes.Create(context.Background(), name, "", "", lines)
	require.NoError(t, err)
	_, err = f.plans.Add(context.Background(), "Lunedì", "Cena", rec.ID)
	require.NoError(t, err)
	return rec
}

func (f *fixture) pantryQuantities(t *testing.T) map[string]pantry.Entry {
	t.Helper()
	entries, err := f.pantry.List(context.Background(), "")
	require.NoError(t, err)
	m := make(map[string]pantry.Entry, len(entries))
	for _, e := range entries {
		m[e.IngredientName] = e
	}
	return m
}

func TestShoppingListPartialCoverage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "farina", 500, "g"))
	f.planRecipe(t, "Torta", ingredient.Parsed{Name: "Farina 00", Quantity: 1, Unit: "kg"})

	items, err := f.rc.ShoppingList(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// "farina 00" matches the pantry's "farina" by sanitized containment,
	// leaving a 500 g shortfall out of the required kilogram.
	assert.Equal(t, "farina 00", items[0].Name)
	assert.Equal(t, "500 g", items[0].Needed)
	assert.Equal(t, "1 kg", items[0].Required)
	assert.Equal(t, "500 g", items[0].InPantry)
}

func TestShoppingListIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "burro", 100, "g"))
	f.planRecipe(t, "Biscotti",
		ingredient.Parsed{Name: "burro", Quantity: 250, Unit: "g"},
		ingredient.Parsed{Name: "zucchero", Quantity: 150, Unit: "g"},
	)

	first, err := f.rc.ShoppingList(ctx)
	require.NoError(t, err)
	second, err := f.rc.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestShoppingListSkipsWaterAndSalt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.planRecipe(t, "Pasta in bianco",
		ingredient.Parsed{Name: "acqua", Quantity: 1, Unit: "l"},
		ingredient.Parsed{Name: "sale grosso", Quantity: 10, Unit: "g"},
		ingredient.Parsed{Name: "pasta", Quantity: 100, Unit: "g"},
	)

	items, err := f.rc.ShoppingList(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "pasta", items[0].Name)
}

func TestShoppingListUnitMismatchCountsAsCovered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A "bottle" of soy sauce can't be compared to milliliters; having any
	// amount covers the requirement.
	require.NoError(t, f.pantry.AddOrUpdate(ctx, "salsa di soia", 1, "bottiglia"))
	f.planRecipe(t, "Pollo alle mandorle", ingredient.Parsed{Name: "salsa di soia", Quantity: 50, Unit: "ml"})

	items, err := f.rc.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestShoppingListAggregatesAcrossPlanEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.recipes.Create(ctx, "Crêpes", "", "", []ingredient.Parsed{
		{Name: "latte", Quantity: 250, Unit: "ml"},
	})
	require.NoError(t, err)
	_, err = f.plans.Add(ctx, "Lunedì", "Colazione", rec.ID)
	require.NoError(t, err)
	_, err = f.plans.Add(ctx, "Martedì", "Colazione", rec.ID)
	require.NoError(t, err)

	items, err := f.rc.ShoppingList(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "500 ml", items[0].Needed)
}

func TestRestockThenShoppingListIsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "farina", 500, "g"))
	f.planRecipe(t, "Torta",
		ingredient.Parsed{Name: "farina", Quantity: 1, Unit: "kg"},
		ingredient.Parsed{Name: "zucchero", Quantity: 200, Unit: "g"},
	)

	touched, err := f.rc.Restock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, touched)

	byName := f.pantryQuantities(t)
	assert.Equal(t, 1000.0, byName["farina"].Quantity)
	assert.Equal(t, "g", byName["farina"].Unit)
	// no pantry match: created in the requirement's base unit
	assert.Equal(t, 200.0, byName["zucchero"].Quantity)
	assert.Equal(t, "g", byName["zucchero"].Unit)

	items, err := f.rc.ShoppingList(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRestockConvertsIntoStoredUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "latte", 0.5, "l"))
	f.planRecipe(t, "Besciamella", ingredient.Parsed{Name: "latte", Quantity: 1, Unit: "l"})

	touched, err := f.rc.Restock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	// 500 ml shortfall converted back into the row's liters
	byName := f.pantryQuantities(t)
	assert.InDelta(t, 1.0, byName["latte"].Quantity, 1e-9)
	assert.Equal(t, "l", byName["latte"].Unit)
}

func TestMarkCookedDeductsAndRemovesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "farina", 500, "g"))
	rec := f.planRecipe(t, "Focaccia", ingredient.Parsed{Name: "farina", Quantity: 200, Unit: "g"})
	_ = rec

	plan, err := f.plans.List(ctx)
	require.NoError(t, err)
	require.Len(t, plan, 1)

	require.NoError(t, f.rc.MarkCooked(ctx, plan[0].ID))

	byName := f.pantryQuantities(t)
	assert.Equal(t, 300.0, byName["farina"].Quantity)

	plan, err = f.plans.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestMarkCookedConvertsBackToStoredUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "latte", 1, "l"))
	f.planRecipe(t, "Crêpes", ingredient.Parsed{Name: "latte", Quantity: 250, Unit: "ml"})

	plan, err := f.plans.List(ctx)
	require.NoError(t, err)
	require.NoError(t, f.rc.MarkCooked(ctx, plan[0].ID))

	byName := f.pantryQuantities(t)
	assert.InDelta(t, 0.75, byName["latte"].Quantity, 1e-9)
	assert.Equal(t, "l", byName["latte"].Unit)
}

func TestMarkCookedEmptiesAndDeletesPantryRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "farina", 100, "g"))
	f.planRecipe(t, "Focaccia", ingredient.Parsed{Name: "farina", Quantity: 200, Unit: "g"})

	plan, err := f.plans.List(ctx)
	require.NoError(t, err)
	require.NoError(t, f.rc.MarkCooked(ctx, plan[0].ID))

	// over-consumption never leaves a negative row, it leaves no row
	byName := f.pantryQuantities(t)
	_, exists := byName["farina"]
	assert.False(t, exists)
}

func TestMarkCookedUnitMismatchSkipsDeduction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "zucchero", 1, "pz"))
	f.planRecipe(t, "Torta", ingredient.Parsed{Name: "zucchero", Quantity: 100, Unit: "g"})

	plan, err := f.plans.List(ctx)
	require.NoError(t, err)
	require.NoError(t, f.rc.MarkCooked(ctx, plan[0].ID))

	byName := f.pantryQuantities(t)
	assert.Equal(t, 1.0, byName["zucchero"].Quantity)

	// the entry is consumed even when nothing could be deducted
	plan, err = f.plans.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestMarkCookedMissingEntryIsNoOp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rc.MarkCooked(context.Background(), "gone"))
}

func TestInspirationPercentAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "farina", 500, "g"))
	_, err := f.recipes.Create(ctx, "Pan di Spagna", "", "", []ingredient.Parsed{
		{Name: "farina", Quantity: 200, Unit: "g"},
		{Name: "zucchero", Quantity: 150, Unit: "g"},
	})
	require.NoError(t, err)

	results, err := f.rc.Inspiration(ctx, "")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 50, results[0].Percent)
	assert.Equal(t, []string{"zucchero"}, results[0].Missing)
}

func TestInspirationInsufficientQuantityIsMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// present but not enough: counts as missing, unlike the shopping list's
	// partial-coverage arithmetic
	require.NoError(t, f.pantry.AddOrUpdate(ctx, "farina", 100, "g"))
	_, err := f.recipes.Create(ctx, "Focaccia", "", "", []ingredient.Parsed{
		{Name: "farina", Quantity: 500, Unit: "g"},
	})
	require.NoError(t, err)

	results, err := f.rc.Inspiration(ctx, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Percent)
	assert.Equal(t, []string{"farina"}, results[0].Missing)
}

func TestInspirationIgnoredOnlyRecipeScoresZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recipes.Create(ctx, "Acqua e sale", "", "", []ingredient.Parsed{
		{Name: "acqua", Quantity: 1, Unit: "l"},
		{Name: "sale", Quantity: 5, Unit: "g"},
		{Name: "olio", Quantity: 1, Unit: "cucchiaio"},
	})
	require.NoError(t, err)

	results, err := f.rc.Inspiration(ctx, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Percent)
	assert.Empty(t, results[0].Missing)
}

func TestInspirationSortsByPercentDescending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "uova", 6, "pz"))
	_, err := f.recipes.Create(ctx, "Frittata", "", "", []ingredient.Parsed{
		{Name: "uova", Quantity: 3, Unit: "pz"},
	})
	require.NoError(t, err)
	_, err = f.recipes.Create(ctx, "Carbonara", "", "", []ingredient.Parsed{
		{Name: "uova", Quantity: 2, Unit: "pz"},
		{Name: "guanciale", Quantity: 150, Unit: "g"},
	})
	require.NoError(t, err)

	results, err := f.rc.Inspiration(ctx, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Frittata", results[0].Recipe.Name)
	assert.Equal(t, 100, results[0].Percent)
	assert.Equal(t, "Carbonara", results[1].Recipe.Name)
	assert.Equal(t, 50, results[1].Percent)
}

func TestInspirationSearchFiltersByNameAndTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.recipes.Create(ctx, "Frittata", "", "veloce,uova", nil)
	require.NoError(t, err)
	_, err = f.recipes.Create(ctx, "Lasagne", "", "forno", nil)
	require.NoError(t, err)

	byName, err := f.rc.Inspiration(ctx, "fritt")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Frittata", byName[0].Recipe.Name)

	byTag, err := f.rc.Inspiration(ctx, "forno")
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Lasagne", byTag[0].Recipe.Name)
}

func TestSuggestionsTopThreeByIngredientPresence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pantry.AddOrUpdate(ctx, "uova", 6, "pz"))
	require.NoError(t, f.pantry.AddOrUpdate(ctx, "farina", 500, "g"))

	_, err := f.recipes.Create(ctx, "Frittata", "", "", []ingredient.Parsed{
		{Name: "uova", Quantity: 3, Unit: "pz"},
	})
	require.NoError(t, err)
	_, err = f.recipes.Create(ctx, "Crêpes", "", "", []ingredient.Parsed{
		{Name: "uova", Quantity: 2, Unit: "pz"},
		{Name: "farina", Quantity: 125, Unit: "g"},
		{Name: "latte", Quantity: 250, Unit: "ml"},
	})
	require.NoError(t, err)
	_, err = f.recipes.Create(ctx, "Pasta al pomodoro", "", "", []ingredient.Parsed{
		{Name: "pasta", Quantity: 100, Unit: "g"},
		{Name: "pomodoro", Quantity: 200, Unit: "g"},
	})
	require.NoError(t, err)

	got, err := f.rc.Suggestions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2) // zero-match recipe excluded

	assert.Equal(t, "Frittata", got[0].Recipe.Name)
	assert.Equal(t, 100, got[0].Percent)
	assert.Equal(t, "Crêpes", got[1].Recipe.Name)
	assert.Equal(t, 67, got[1].Percent)
}
