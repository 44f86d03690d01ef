package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"dispensa/internal/database"
	"dispensa/internal/ingredient"
)

// Valid sort orders for List.
const (
	SortNewest   = "newest"
	SortNameAsc  = "name_asc"
	SortNameDesc = "name_desc"
)

// Repository persists recipes and their ingredient links. Multi-row writes
// (create with links, cascading delete) run in a single transaction so no
// half-populated recipe is ever visible.
type Repository struct {
	db *database.DB
}

// NewRepository creates a recipe repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a recipe together with its ingredient lines. Unknown
// ingredient names are added to the dictionary lazily, lowercased. An empty
// sourceURL is stored as NULL.
func (r *Repository) Create(ctx context.Context, name, sourceURL, tags string, lines []ingredient.Parsed) (Recipe, error) {
	rec := Recipe{
		ID:        uuid.NewString(),
		Name:      name,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}
	if sourceURL != "" {
		rec.SourceURL = &sourceURL
	}

	err := r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (id, name, source_url, tags, created_at) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, rec.SourceURL, rec.Tags, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		for _, line := range lines {
			ingID, err := ensureIngredient(ctx, tx, line.Name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO recipe_ingredients (id, recipe_id, ingredient_id, quantity, unit) VALUES (?, ?, ?, ?, ?)`,
				uuid.NewString(), rec.ID, ingID, line.Quantity, line.Unit,
			); err != nil {
				return fmt.Errorf("failed to insert recipe ingredient: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Recipe{}, err
	}
	return rec, nil
}

// Delete removes a recipe with its ingredient links and any weekly-plan
// entries referencing it, in one transaction. Referential cleanup is the
// caller's job, not the schema's.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete recipe ingredients: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_plan WHERE recipe_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete plan entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

// GetBySourceURL returns the recipe imported from the given URL, or nil when
// none exists.
func (r *Repository) GetBySourceURL(ctx context.Context, url string) (*Recipe, error) {
	var rec Recipe
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, name, source_url, tags, created_at FROM recipes WHERE source_url = ?`, url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe by source url: %w", err)
	}
	return &rec, nil
}

// List returns one page of recipes with their ingredients, plus the total
// match count. A non-empty search matches recipe names and ingredient names.
func (r *Repository) List(ctx context.Context, search, sort string, page, perPage int) ([]WithIngredients, int, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		s := strings.ToLower(search)
		where = `
		WHERE instr(lower(r.name), ?) > 0
		   OR EXISTS (
			SELECT 1 FROM recipe_ingredients ri
			JOIN ingredients i ON i.id = ri.ingredient_id
			WHERE ri.recipe_id = r.id AND instr(i.name, ?) > 0
		   )`
		args = append(args, s, s)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM recipes r`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	order := `r.created_at DESC`
	switch sort {
	case SortNameAsc:
		order = `r.name ASC`
	case SortNameDesc:
		order = `r.name DESC`
	}

	if page < 1 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)

	var recipes []Recipe
	err := r.db.SelectContext(ctx, &recipes, `
		SELECT r.id, r.name, r.source_url, r.tags, r.created_at FROM recipes r`+where+`
		ORDER BY `+order+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	full, err := r.attachIngredients(ctx, recipes)
	if err != nil {
		return nil, 0, err
	}
	return full, total, nil
}

// ListAllWithIngredients returns every recipe with its ingredient lines.
func (r *Repository) ListAllWithIngredients(ctx context.Context) ([]WithIngredients, error) {
	var recipes []Recipe
	err := r.db.SelectContext(ctx, &recipes, `
		SELECT id, name, source_url, tags, created_at FROM recipes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return r.attachIngredients(ctx, recipes)
}

// Count returns the number of stored recipes.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM recipes`); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

func (r *Repository) attachIngredients(ctx context.Context, recipes []Recipe) ([]WithIngredients, error) {
	full := make([]WithIngredients, len(recipes))
	if len(recipes) == 0 {
		return full, nil
	}

	ids := make([]string, len(recipes))
	for i, rec := range recipes {
		full[i] = WithIngredients{Recipe: rec, Ingredients: []Line{}}
		ids[i] = rec.ID
	}

	query, args, err := sqlx.In(`
		SELECT ri.id, ri.recipe_id, ri.ingredient_id, i.name AS ingredient_name, ri.quantity, ri.unit
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build ingredient query: %w", err)
	}

	var lines []Line
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load recipe ingredients: %w", err)
	}

	byRecipe := make(map[string]int, len(recipes))
	for i, rec := range recipes {
		byRecipe[rec.ID] = i
	}
	for _, line := range lines {
		i := byRecipe[line.RecipeID]
		full[i].Ingredients = append(full[i].Ingredients, line)
	}
	return full, nil
}

// ensureIngredient mirrors the lazy dictionary upsert done on the pantry side;
// every call site that first references a name creates it lowercased.
func ensureIngredient(ctx context.Context, q database.Queryer, name string) (string, error) {
	name = strings.ToLower(name)

	var id string
	err := q.GetContext(ctx, &id, `SELECT id FROM ingredients WHERE name = ?`, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up ingredient %q: %w", name, err)
	}

	id = uuid.NewString()
	if _, err := q.ExecContext(ctx, `INSERT INTO ingredients (id, name) VALUES (?, ?)`, id, name); err != nil {
		return "", fmt.Errorf("failed to create ingredient %q: %w", name, err)
	}
	return id, nil
}
