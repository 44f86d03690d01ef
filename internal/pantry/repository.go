package pantry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dispensa/internal/database"
)

// Repository persists the ingredient dictionary and the pantry inventory.
type Repository struct {
	q database.Queryer
}

// NewRepository creates a pantry repository on the given query handle.
func NewRepository(q database.Queryer) *Repository {
	return &Repository{q: q}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *Repository) WithTx(tx *sqlx.Tx) *Repository {
	return &Repository{q: tx}
}

// EnsureIngredient returns the ingredient with the given name, creating it
// lazily on first reference. Names are stored lowercased.
func (r *Repository) EnsureIngredient(ctx context.Context, name string) (Ingredient, error) {
	name = strings.ToLower(name)

	var ing Ingredient
	err := r.q.GetContext(ctx, &ing, `SELECT id, name FROM ingredients WHERE name = ?`, name)
	if err == nil {
		return ing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Ingredient{}, fmt.Errorf("failed to look up ingredient %q: %w", name, err)
	}

	ing = Ingredient{ID: uuid.NewString(), Name: name}
	if _, err := r.q.ExecContext(ctx, `INSERT INTO ingredients (id, name) VALUES (?, ?)`, ing.ID, ing.Name); err != nil {
		return Ingredient{}, fmt.Errorf("failed to create ingredient %q: %w", name, err)
	}
	return ing, nil
}

// AddOrUpdate adds quantity of an ingredient to the pantry. Repeat adds of the
// same ingredient increment the stored quantity and take over the new unit.
func (r *Repository) AddOrUpdate(ctx context.Context, name string, quantity float64, unit string) error {
	ing, err := r.EnsureIngredient(ctx, name)
	if err != nil {
		return err
	}
	return r.IncrementByIngredientID(ctx, ing.ID, quantity, unit)
}

// IncrementByIngredientID upserts the pantry row for an ingredient, adding
// delta to the existing quantity or creating the row with it.
func (r *Repository) IncrementByIngredientID(ctx context.Context, ingredientID string, delta float64, unit string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO pantry_items (id, ingredient_id, quantity, unit) VALUES (?, ?, ?, ?)
		ON CONFLICT (ingredient_id)
		DO UPDATE SET quantity = quantity + excluded.quantity, unit = excluded.unit`,
		uuid.NewString(), ingredientID, delta, unit,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pantry item: %w", err)
	}
	return nil
}

// AdjustQuantity changes a pantry row's quantity by delta, flooring at zero.
// A row that reaches zero is deleted; a row that no longer exists is a no-op.
func (r *Repository) AdjustQuantity(ctx context.Context, id string, delta float64) error {
	var current float64
	err := r.q.GetContext(ctx, &current, `SELECT quantity FROM pantry_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read pantry item: %w", err)
	}

	next := current + delta
	if next < 0 {
		next = 0
	}
	if next == 0 {
		return r.Delete(ctx, id)
	}
	return r.SetQuantity(ctx, id, next)
}

// SetQuantity overwrites a pantry row's quantity.
func (r *Repository) SetQuantity(ctx context.Context, id string, quantity float64) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE pantry_items SET quantity = ? WHERE id = ?`, quantity, id); err != nil {
		return fmt.Errorf("failed to update pantry quantity: %w", err)
	}
	return nil
}

// Delete removes a pantry row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	return nil
}

// List returns pantry entries joined with ingredient names, ordered by name.
// A non-empty search filters by name containment.
func (r *Repository) List(ctx context.Context, search string) ([]Entry, error) {
	query := `
		SELECT p.id, p.ingredient_id, i.name AS ingredient_name, p.quantity, p.unit
		FROM pantry_items p
		JOIN ingredients i ON i.id = p.ingredient_id`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE instr(i.name, ?) > 0`
		args = append(args, strings.ToLower(search))
	}
	query += ` ORDER BY i.name ASC`

	var entries []Entry
	if err := r.q.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list pantry: %w", err)
	}
	return entries, nil
}

// FindByNameContainment returns the first pantry entry whose ingredient name
// equals or contains the given lowercase name. This is the consumption-side
// lookup and is narrower than the sanitized bidirectional matching used by
// the shopping list.
func (r *Repository) FindByNameContainment(ctx context.Context, name string) (*Entry, error) {
	name = strings.ToLower(name)

	var e Entry
	err := r.q.GetContext(ctx, &e, `
		SELECT p.id, p.ingredient_id, i.name AS ingredient_name, p.quantity, p.unit
		FROM pantry_items p
		JOIN ingredients i ON i.id = p.ingredient_id
		WHERE i.name = ? OR instr(i.name, ?) > 0
		LIMIT 1`, name, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pantry item for %q: %w", name, err)
	}
	return &e, nil
}

// Ingredients returns the full ingredient dictionary ordered by name.
func (r *Repository) Ingredients(ctx context.Context) ([]Ingredient, error) {
	var ings []Ingredient
	if err := r.q.SelectContext(ctx, &ings, `SELECT id, name FROM ingredients ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ings, nil
}

// CountItems returns the number of pantry rows.
func (r *Repository) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := r.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM pantry_items`); err != nil {
		return 0, fmt.Errorf("failed to count pantry items: %w", err)
	}
	return n, nil
}
