// Package api exposes the meal-planning operations over HTTP.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dispensa/internal/ingredient"
	"dispensa/internal/metrics"
	"dispensa/internal/pantry"
	"dispensa/internal/planner"
	"dispensa/internal/recipe"
)

// Handler handles HTTP requests.
type Handler struct {
	pantry     *pantry.Repository
	recipes    *recipe.Repository
	plans      *planner.Repository
	reconciler *planner.Reconciler
	importer   *recipe.Importer
	metrics    *metrics.Store
	log        *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(pan *pantry.Repository, recipes *recipe.Repository, plans *planner.Repository, rc *planner.Reconciler, importer *recipe.Importer, store *metrics.Store, log *zap.Logger) *Handler {
	return &Handler{
		pantry:     pan,
		recipes:    recipes,
		plans:      plans,
		reconciler: rc,
		importer:   importer,
		metrics:    store,
		log:        log,
	}
}

func (h *Handler) fail(c *gin.Context, status int, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	c.JSON(status, gin.H{"error": msg})
}

// --- pantry ---

func (h *Handler) ListPantry(c *gin.Context) {
	entries, err := h.pantry.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load pantry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

type addPantryRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	Unit     string  `json:"unit"`
}

func (h *Handler) AddPantryItem(c *gin.Context) {
	var req addPantryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "pz"
	}
	if err := h.pantry.AddOrUpdate(c.Request.Context(), req.Name, req.Quantity, unit); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to add pantry item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type adjustPantryRequest struct {
	Delta float64 `json:"delta" binding:"required"`
}

func (h *Handler) AdjustPantryItem(c *gin.Context) {
	var req adjustPantryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.pantry.AdjustQuantity(c.Request.Context(), c.Param("id"), req.Delta); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to adjust pantry item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeletePantryItem(c *gin.Context) {
	if err := h.pantry.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to delete pantry item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListIngredients(c *gin.Context) {
	ings, err := h.pantry.Ingredients(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load ingredients", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ings})
}

// --- recipes ---

func (h *Handler) ListRecipes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "12"))
	if perPage < 1 || perPage > 100 {
		perPage = 12
	}

	recipes, total, err := h.recipes.List(c.Request.Context(), c.Query("search"), c.DefaultQuery("sort", recipe.SortNewest), page, perPage)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to list recipes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipes":  recipes,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

type recipeLineRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type createRecipeRequest struct {
	Name        string              `json:"name" binding:"required"`
	Tags        string              `json:"tags"`
	Ingredients []recipeLineRequest `json:"ingredients"`
}

func (h *Handler) CreateRecipe(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]ingredient.Parsed, 0, len(req.Ingredients))
	for _, l := range req.Ingredients {
		qty := l.Quantity
		if qty <= 0 {
			qty = 1
		}
		unit := strings.TrimSpace(l.Unit)
		if unit == "" {
			unit = "pz"
		}
		lines = append(lines, ingredient.Parsed{Name: l.Name, Quantity: qty, Unit: unit})
	}

	rec, err := h.recipes.Create(c.Request.Context(), req.Name, "", req.Tags, lines)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to create recipe", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type importRecipeRequest struct {
	URL string `json:"url" binding:"required,url"`
}

func (h *Handler) ImportRecipe(c *gin.Context) {
	var req importRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	existing, err := h.recipes.GetBySourceURL(ctx, req.URL)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to check recipe source", err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": recipe.ErrDuplicateSource.Error(), "recipe": existing})
		return
	}

	// Extraction completes before anything is persisted, so a failed fetch
	// leaves no partial recipe behind.
	imported, err := h.importer.Fetch(ctx, req.URL)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "import failed", err)
		return
	}

	rec, err := h.recipes.Create(ctx, imported.Name, req.URL, imported.Tags, imported.Ingredients)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to save imported recipe", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": rec, "ingredient_count": len(imported.Ingredients)})
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	if err := h.recipes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to delete recipe", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- weekly plan ---

func (h *Handler) ListPlan(c *gin.Context) {
	entries, err := h.plans.List(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load plan", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "days": planner.Days, "meal_types": planner.MealTypes})
}

type addPlanRequest struct {
	Day      string `json:"day" binding:"required"`
	MealType string `json:"meal_type" binding:"required"`
	RecipeID string `json:"recipe_id" binding:"required"`
}

func (h *Handler) AddPlanEntry(c *gin.Context) {
	var req addPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.plans.Add(c.Request.Context(), req.Day, req.MealType, req.RecipeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type movePlanRequest struct {
	Day      string `json:"day" binding:"required"`
	MealType string `json:"meal_type" binding:"required"`
}

func (h *Handler) MovePlanEntry(c *gin.Context) {
	var req movePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.plans.Move(c.Request.Context(), c.Param("id"), req.Day, req.MealType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemovePlanEntry(c *gin.Context) {
	if err := h.plans.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to remove plan entry", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkCooked(c *gin.Context) {
	if err := h.reconciler.MarkCooked(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to mark meal cooked", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- shopping list / inspiration / dashboard ---

func (h *Handler) ShoppingList(c *gin.Context) {
	items, err := h.reconciler.ShoppingList(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to compute shopping list", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) PurchaseShoppingList(c *gin.Context) {
	touched, err := h.reconciler.Restock(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to restock pantry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restocked": touched})
}

func (h *Handler) Inspiration(c *gin.Context) {
	results, err := h.reconciler.Inspiration(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to compute inspiration", err)
		return
	}

	ready := []planner.Availability{}
	almost := []planner.Availability{}
	others := []planner.Availability{}
	for _, r := range results {
		switch {
		case r.Percent == 100 && len(r.Recipe.Ingredients) > 0:
			ready = append(ready, r)
		case r.Percent >= 50:
			almost = append(almost, r)
		default:
			others = append(others, r)
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": ready, "almost": almost, "others": others})
}

func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	pantryCount, err := h.pantry.CountItems(ctx)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load dashboard", err)
		return
	}
	recipeCount, err := h.recipes.Count(ctx)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load dashboard", err)
		return
	}
	plan, err := h.plans.List(ctx)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load dashboard", err)
		return
	}
	suggestions, err := h.reconciler.Suggestions(ctx)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load dashboard", err)
		return
	}

	var nextMeal *planner.Entry
	if len(plan) > 0 {
		nextMeal = &plan[0]
	}
	c.JSON(http.StatusOK, gin.H{
		"pantry_items": pantryCount,
		"recipes":      recipeCount,
		"plan_entries": len(plan),
		"next_meal":    nextMeal,
		"suggestions":  suggestions,
	})
}

func (h *Handler) Metrics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days < 1 || days > 365 {
		days = 7
	}
	usage, err := h.metrics.GetDailyUsage(c.Request.Context(), days)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load metrics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "usage": usage})
}
