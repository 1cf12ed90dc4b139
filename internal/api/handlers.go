package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker func(ctx context.Context) error

// Handlers are the components RegisterRoutes mounts. Metrics may be nil.
type Handlers struct {
	Auth     *AuthHandler
	Recipes  *RecipeHandler
	Images   *ImageHandler
	Frontend *FrontendHandler
	Health   HealthChecker
	Metrics  http.Handler
}

// HealthCheck returns the health status of the API
func HealthCheck(check HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// Hello is a connectivity check for the frontend
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from the RecipeShare API!"})
}

// RegisterRoutes registers all routes
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", HealthCheck(h.Health))
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck(h.Health))
		api.GET("/hello", Hello)
		h.Auth.RegisterRoutes(api)
		h.Recipes.RegisterRoutes(api)
	}

	h.Images.RegisterRoutes(router)
	h.Frontend.RegisterRoutes(router)
}
