package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dispensa/internal/database"
	"dispensa/internal/ingredient"
)

// Repository persists weekly-plan entries.
type Repository struct {
	q database.Queryer
}

// NewRepository creates a plan repository on the given query handle.
func NewRepository(q database.Queryer) *Repository {
	return &Repository{q: q}
}

// WithTx returns a copy of the repository bound to an open transaction.
func (r *Repository) WithTx(tx *sqlx.Tx) *Repository {
	return &Repository{q: tx}
}

// Add plans a recipe into a (day, mealType) slot. Slots are not exclusive.
func (r *Repository) Add(ctx context.Context, day, mealType, recipeID string) (Entry, error) {
	if err := ValidateSlot(day, mealType); err != nil {
		return Entry{}, err
	}

	e := Entry{ID: uuid.NewString(), Day: day, MealType: mealType, RecipeID: recipeID}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO weekly_plan (id, day, meal_type, recipe_id) VALUES (?, ?, ?, ?)`,
		e.ID, e.Day, e.MealType, e.RecipeID,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to add plan entry: %w", err)
	}
	return e, nil
}

// Remove deletes a plan entry. Removing a missing entry is a no-op.
func (r *Repository) Remove(ctx context.Context, id string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM weekly_plan WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove plan entry: %w", err)
	}
	return nil
}

// Move reassigns a plan entry to another slot. Moving a missing entry is a
// no-op.
func (r *Repository) Move(ctx context.Context, id, day, mealType string) error {
	if err := ValidateSlot(day, mealType); err != nil {
		return err
	}
	if _, err := r.q.ExecContext(ctx, `
		UPDATE weekly_plan SET day = ?, meal_type = ? WHERE id = ?`, day, mealType, id); err != nil {
		return fmt.Errorf("failed to move plan entry: %w", err)
	}
	return nil
}

// Get returns one plan entry with its recipe name, or nil when it no longer
// exists.
func (r *Repository) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	err := r.q.GetContext(ctx, &e, `
		SELECT wp.id, wp.day, wp.meal_type, wp.recipe_id, r.name AS recipe_name
		FROM weekly_plan wp
		JOIN recipes r ON r.id = wp.recipe_id
		WHERE wp.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan entry: %w", err)
	}
	return &e, nil
}

// List returns every plan entry joined with its recipe name, ordered
// day-first then meal then recipe name.
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := r.q.SelectContext(ctx, &entries, `
		SELECT wp.id, wp.day, wp.meal_type, wp.recipe_id, r.name AS recipe_name
		FROM weekly_plan wp
		JOIN recipes r ON r.id = wp.recipe_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan: %w", err)
	}

	// Italian day names don't sort lexically; order in memory instead.
	sort.SliceStable(entries, func(i, j int) bool { return slotLess(entries[i], entries[j]) })
	return entries, nil
}

// Count returns the number of plan entries.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM weekly_plan`); err != nil {
		return 0, fmt.Errorf("failed to count plan entries: %w", err)
	}
	return n, nil
}

// Requirements returns one (name, quantity, unit) occurrence per recipe
// ingredient per plan entry, across the whole week. A recipe planned twice
// contributes its ingredients twice.
func (r *Repository) Requirements(ctx context.Context) ([]ingredient.Requirement, error) {
	return r.requirements(ctx, `
		SELECT i.name, ri.quantity, ri.unit
		FROM weekly_plan wp
		JOIN recipe_ingredients ri ON ri.recipe_id = wp.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id`)
}

// RequirementsForEntry returns the ingredient requirements of one plan entry's
// recipe.
func (r *Repository) RequirementsForEntry(ctx context.Context, id string) ([]ingredient.Requirement, error) {
	return r.requirements(ctx, `
		SELECT i.name, ri.quantity, ri.unit
		FROM weekly_plan wp
		JOIN recipe_ingredients ri ON ri.recipe_id = wp.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE wp.id = ?`, id)
}

func (r *Repository) requirements(ctx context.Context, query string, args ...interface{}) ([]ingredient.Requirement, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan requirements: %w", err)
	}
	defer rows.Close()

	var reqs []ingredient.Requirement
	for rows.Next() {
		var req ingredient.Requirement
		if err := rows.Scan(&req.Name, &req.Quantity, &req.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan plan requirement: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan requirements: %w", err)
	}
	return reqs, nil
}
