package pantry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispensa/internal/database"
)

func TestAddOrUpdateIncrementsExistingRow(t *testing.T) {
	db := database.NewTest(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, "Farina", 500, "g"))
	require.NoError(t, repo.AddOrUpdate(ctx, "farina", 250, "g"))

	entries, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "farina", entries[0].IngredientName)
	assert.Equal(t, 750.0, entries[0].Quantity)
	assert.Equal(t, "g", entries[0].Unit)
}

func TestAddOrUpdateTakesOverNewUnit(t *testing.T) {
	db := database.NewTest(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, "latte", 1, "l"))
	require.NoError(t, repo.AddOrUpdate(ctx, "latte", 500, "ml"))

	entries, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ml", entries[0].Unit)
	assert.Equal(t, 501.0, entries[0].Quantity)
}

func TestAdjustQuantityFloorsAtZeroAndDeletes(t *testing.T) {
	db := database.NewTest(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, "uova", 6, "pz"))
	entries, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	id := entries[0].ID

	require.NoError(t, repo.AdjustQuantity(ctx, id, -2))
	entries, err = repo.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4.0, entries[0].Quantity)

	// over-consumption floors at zero, which removes the row
	require.NoError(t, repo.AdjustQuantity(ctx, id, -10))
	entries, err = repo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// adjusting a missing row is a no-op
	require.NoError(t, repo.AdjustQuantity(ctx, id, 3))
	entries, err = repo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListSearchFiltersByContainment(t *testing.T) {
	db := database.NewTest(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, "pomodori pelati", 2, "pz"))
	require.NoError(t, repo.AddOrUpdate(ctx, "basilico", 1, "pz"))

	entries, err := repo.List(ctx, "Pomod")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pomodori pelati", entries[0].IngredientName)
}

func TestFindByNameContainment(t *testing.T) {
	db := database.NewTest(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.AddOrUpdate(ctx, "farina 00", 500, "g"))

	// exact match and pantry-name-contains-query both hit
	exact, err := repo.FindByNameContainment(ctx, "farina 00")
	require.NoError(t, err)
	require.NotNil(t, exact)

	partial, err := repo.FindByNameContainment(ctx, "farina")
	require.NoError(t, err)
	require.NotNil(t, partial)
	assert.Equal(t, "farina 00", partial.IngredientName)

	// the reverse direction (query contains pantry name) does not
	none, err := repo.FindByNameContainment(ctx, "farina 00 manitoba")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestEnsureIngredientIsIdempotent(t *testing.T) {
	db := database.NewTest(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first, err := repo.EnsureIngredient(ctx, "Zucchero")
	require.NoError(t, err)
	second, err := repo.EnsureIngredient(ctx, "zucchero")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "zucchero", first.Name)

	ings, err := repo.Ingredients(ctx)
	require.NoError(t, err)
	assert.Len(t, ings, 1)
}
