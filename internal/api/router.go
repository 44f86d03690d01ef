package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS and all API routes. An empty
// origin list allows every origin, which suits a single-tenant home setup.
func NewRouter(h *Handler, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		corsCfg.AllowOrigins = allowedOrigins
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")

	api.GET("/pantry", h.ListPantry)
	api.POST("/pantry", h.AddPantryItem)
	api.PATCH("/pantry/:id/adjust", h.AdjustPantryItem)
	api.DELETE("/pantry/:id", h.DeletePantryItem)
	api.GET("/ingredients", h.ListIngredients)

	api.GET("/recipes", h.ListRecipes)
	api.POST("/recipes", h.CreateRecipe)
	api.POST("/recipes/import", h.ImportRecipe)
	api.DELETE("/recipes/:id", h.DeleteRecipe)

	api.GET("/plan", h.ListPlan)
	api.POST("/plan", h.AddPlanEntry)
	api.PATCH("/plan/:id/move", h.MovePlanEntry)
	api.DELETE("/plan/:id", h.RemovePlanEntry)
	api.POST("/plan/:id/cooked", h.MarkCooked)

	api.GET("/shopping-list", h.ShoppingList)
	api.POST("/shopping-list/purchase", h.PurchaseShoppingList)
	api.GET("/inspiration", h.Inspiration)
	api.GET("/dashboard", h.Dashboard)
	api.GET("/metrics", h.Metrics)

	return r
}
