package planner

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dispensa/internal/database"
	"dispensa/internal/ingredient"
	"dispensa/internal/pantry"
	"dispensa/internal/recipe"
)

// Operation names as recorded in the metrics store.
const (
	OpShoppingList = "shopping_list"
	OpInspiration  = "inspiration"
	OpMarkCooked   = "mark_cooked"
	OpRestock      = "restock"
)

// Recorder receives one usage sample per reconciler operation. Recording is
// best-effort: failures are logged, never propagated.
type Recorder interface {
	Record(ctx context.Context, operation string, items int, elapsed time.Duration) error
}

// ShortfallItem is one shopping-list line: how much of an ingredient the plan
// still needs beyond what the pantry holds, with the display strings the UI
// renders directly.
type ShortfallItem struct {
	Name     string `json:"name"`
	Needed   string `json:"needed"`
	Required string `json:"required"`
	InPantry string `json:"in_pantry"`
}

// Availability scores one recipe against the pantry: the share of essential
// ingredients that are covered and the names of the ones that are not.
type Availability struct {
	Recipe  recipe.WithIngredients `json:"recipe"`
	Percent int                    `json:"percent"`
	Missing []string               `json:"missing"`
}

// Reconciler implements the four pantry/plan operations. Each mutating
// operation runs its whole read-compute-write sequence in one transaction so
// concurrent invocations cannot interleave partial updates.
type Reconciler struct {
	db      *database.DB
	plans   *Repository
	pantry  *pantry.Repository
	recipes *recipe.Repository
	metrics Recorder
	log     *zap.Logger
}

// NewReconciler wires the reconciler. metrics may be nil.
func NewReconciler(db *database.DB, plans *Repository, pan *pantry.Repository, recipes *recipe.Repository, metrics Recorder, log *zap.Logger) *Reconciler {
	return &Reconciler{db: db, plans: plans, pantry: pan, recipes: recipes, metrics: metrics, log: log}
}

// ShoppingList computes the weekly shortfall: total plan requirements minus
// pantry stock, per ingredient, skipping water and salt. Read-only and
// idempotent.
func (rc *Reconciler) ShoppingList(ctx context.Context) ([]ShortfallItem, error) {
	start := time.Now()

	var (
		reqs    []ingredient.Requirement
		entries []pantry.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		reqs, err = rc.plans.Requirements(gctx)
		return err
	})
	g.Go(func() (err error) {
		entries, err = rc.pantry.List(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := ingredient.Aggregate(reqs, ingredient.ShoppingIgnoreList)
	names := pantryNames(entries)

	items := []ShortfallItem{}
	for _, key := range ingredient.SortedKeys(totals) {
		t := totals[key]

		inPantry := 0.0
		covered := false
		if idx := ingredient.MatchIndex(t.DisplayName, names); idx >= 0 {
			pq := ingredient.NormalizeQuantity(entries[idx].Quantity, entries[idx].Unit)
			if pq.BaseUnit == t.BaseUnit {
				inPantry = pq.Value
			} else if entries[idx].Quantity > 0 {
				// Unit mismatch: having any amount counts as covered. This is
				// an approximation for count-like goods ("1 bottiglia" vs ml).
				covered = true
			}
		}

		needed := t.TotalValue - inPantry
		if covered || needed <= 0 {
			continue
		}
		items = append(items, ShortfallItem{
			Name:     t.DisplayName,
			Needed:   ingredient.FormatOutput(needed, t.BaseUnit),
			Required: ingredient.FormatOutput(t.TotalValue, t.BaseUnit),
			InPantry: ingredient.FormatOutput(inPantry, t.BaseUnit),
		})
	}

	rc.record(ctx, OpShoppingList, len(items), time.Since(start))
	return items, nil
}

// Inspiration scores every recipe by how much of it the pantry already covers,
// sorted by percent descending. A non-empty search filters by recipe name or
// tag containment before scoring.
func (rc *Reconciler) Inspiration(ctx context.Context, search string) ([]Availability, error) {
	start := time.Now()

	var (
		recipes []recipe.WithIngredients
		entries []pantry.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recipes, err = rc.recipes.ListAllWithIngredients(gctx)
		return err
	})
	g.Go(func() (err error) {
		entries, err = rc.pantry.List(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := pantryNames(entries)
	search = strings.ToLower(strings.TrimSpace(search))

	results := []Availability{}
	for _, r := range recipes {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.Tags), search) {
			continue
		}

		essential := 0
		satisfied := 0
		missing := []string{}
		for _, line := range r.Ingredients {
			if ingredient.AvailabilityIgnoreList[strings.ToLower(line.Name)] {
				continue
			}
			essential++

			req := ingredient.NormalizeQuantity(line.Quantity, line.Unit)
			idx := ingredient.MatchIndex(line.Name, names)
			if idx < 0 {
				missing = append(missing, line.Name)
				continue
			}
			pq := ingredient.NormalizeQuantity(entries[idx].Quantity, entries[idx].Unit)
			switch {
			case pq.BaseUnit == req.BaseUnit && pq.Value >= req.Value:
				satisfied++
			case pq.BaseUnit != req.BaseUnit && entries[idx].Quantity > 0:
				satisfied++
			default:
				missing = append(missing, line.Name)
			}
		}

		percent := 0
		if essential > 0 {
			percent = int(math.Round(float64(satisfied) / float64(essential) * 100))
		}
		results = append(results, Availability{Recipe: r, Percent: percent, Missing: missing})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Percent > results[j].Percent })

	rc.record(ctx, OpInspiration, len(results), time.Since(start))
	return results, nil
}

// MarkCooked consumes one plan entry: each recipe ingredient with a pantry
// match in the same base unit is deducted (floored at zero, row deleted when
// emptied), then the plan entry is removed. Ingredients without a match or
// with a unit mismatch are skipped. The entry is removed even when nothing
// could be deducted; a missing entry is a no-op.
func (rc *Reconciler) MarkCooked(ctx context.Context, planID string) error {
	start := time.Now()
	deducted := 0

	err := rc.db.InTx(ctx, func(tx *sqlx.Tx) error {
		plans := rc.plans.WithTx(tx)
		pan := rc.pantry.WithTx(tx)

		entry, err := plans.Get(ctx, planID)
		if err != nil {
			return err
		}
		if entry == nil {
			rc.log.Info("plan entry already gone, nothing to cook", zap.String("plan_id", planID))
			return nil
		}

		reqs, err := plans.RequirementsForEntry(ctx, planID)
		if err != nil {
			return err
		}

		for _, r := range reqs {
			req := ingredient.NormalizeQuantity(r.Quantity, r.Unit)

			// Consumption matches by raw name containment, not the sanitized
			// bidirectional rule the shopping list uses.
			match, err := pan.FindByNameContainment(ctx, r.Name)
			if err != nil {
				return err
			}
			if match == nil {
				continue
			}

			pq := ingredient.NormalizeQuantity(match.Quantity, match.Unit)
			if pq.BaseUnit != req.BaseUnit {
				rc.log.Info("unit mismatch, skipping deduction",
					zap.String("ingredient", r.Name),
					zap.String("required", req.BaseUnit),
					zap.String("pantry", pq.BaseUnit))
				continue
			}

			// Conversion factor from base units back to the stored unit.
			ratio := 1.0
			if pq.Value != 0 {
				ratio = match.Quantity / pq.Value
			}

			newBase := pq.Value - req.Value
			if newBase <= 0 {
				if err := pan.Delete(ctx, match.ID); err != nil {
					return err
				}
			} else if err := pan.SetQuantity(ctx, match.ID, newBase*ratio); err != nil {
				return err
			}
			deducted++
		}

		return plans.Remove(ctx, planID)
	})
	if err != nil {
		return err
	}

	rc.record(ctx, OpMarkCooked, deducted, time.Since(start))
	return nil
}

// Restock applies a "bought everything" shopping trip: every shortfall
// quantity is added to the pantry, converted into the matched row's stored
// unit, or created as a new row in the requirement's base unit when no pantry
// match exists. Returns the number of pantry rows touched.
func (rc *Reconciler) Restock(ctx context.Context) (int, error) {
	start := time.Now()
	touched := 0

	err := rc.db.InTx(ctx, func(tx *sqlx.Tx) error {
		plans := rc.plans.WithTx(tx)
		pan := rc.pantry.WithTx(tx)

		reqs, err := plans.Requirements(ctx)
		if err != nil {
			return err
		}
		entries, err := pan.List(ctx, "")
		if err != nil {
			return err
		}

		totals := ingredient.Aggregate(reqs, ingredient.ShoppingIgnoreList)
		names := pantryNames(entries)

		for _, key := range ingredient.SortedKeys(totals) {
			t := totals[key]

			idx := ingredient.MatchIndex(t.DisplayName, names)
			inPantry := 0.0
			if idx >= 0 {
				if pq := ingredient.NormalizeQuantity(entries[idx].Quantity, entries[idx].Unit); pq.BaseUnit == t.BaseUnit {
					inPantry = pq.Value
				}
			}

			needed := t.TotalValue - inPantry
			if needed <= 0 {
				continue
			}

			if idx >= 0 {
				// Convert the base-unit shortfall into the row's stored unit.
				factor := ingredient.NormalizeQuantity(1, entries[idx].Unit).Value
				if factor == 0 {
					factor = 1
				}
				if err := pan.IncrementByIngredientID(ctx, entries[idx].IngredientID, needed/factor, entries[idx].Unit); err != nil {
					return err
				}
			} else {
				ing, err := pan.EnsureIngredient(ctx, key)
				if err != nil {
					return err
				}
				if err := pan.IncrementByIngredientID(ctx, ing.ID, needed, t.BaseUnit); err != nil {
					return err
				}
			}
			touched++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	rc.record(ctx, OpRestock, touched, time.Since(start))
	return touched, nil
}

// Suggestion is one dashboard "empty the fridge" hint.
type Suggestion struct {
	Recipe  recipe.Recipe `json:"recipe"`
	Percent int           `json:"percent"`
}

// Suggestions returns up to three recipes ranked by how many of their
// ingredients are present in the pantry at all. Presence is checked by
// ingredient id, not by name matching, so it is stricter than Inspiration.
func (rc *Reconciler) Suggestions(ctx context.Context) ([]Suggestion, error) {
	var (
		recipes []recipe.WithIngredients
		entries []pantry.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		recipes, err = rc.recipes.ListAllWithIngredients(gctx)
		return err
	})
	g.Go(func() (err error) {
		entries, err = rc.pantry.List(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inPantry := make(map[string]bool, len(entries))
	for _, e := range entries {
		inPantry[e.IngredientID] = true
	}

	var ranked []Suggestion
	for _, r := range recipes {
		if len(r.Ingredients) == 0 {
			continue
		}
		matched := 0
		for _, line := range r.Ingredients {
			if inPantry[line.IngredientID] {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		percent := int(math.Round(float64(matched) / float64(len(r.Ingredients)) * 100))
		ranked = append(ranked, Suggestion{Recipe: r.Recipe, Percent: percent})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Percent > ranked[j].Percent })
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked, nil
}

func (rc *Reconciler) record(ctx context.Context, op string, items int, elapsed time.Duration) {
	if rc.metrics == nil {
		return
	}
	if err := rc.metrics.Record(ctx, op, items, elapsed); err != nil {
		rc.log.Warn("failed to record operation metric", zap.String("operation", op), zap.Error(err))
	}
}

func pantryNames(entries []pantry.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.IngredientName
	}
	return names
}
