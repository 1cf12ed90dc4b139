package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeshare/backend/internal/middleware"
)

// FrontendHandler serves the single-page app's static files and falls back
// to its index.html for client-side routes
type FrontendHandler struct {
	dir string
}

func NewFrontendHandler(dir string) *FrontendHandler {
	return &FrontendHandler{dir: dir}
}

func (h *FrontendHandler) RegisterRoutes(router *gin.Engine) {
	router.Static("/static", h.dir)
	router.NoRoute(h.Fallback)
}

// Fallback answers every unmatched route. API paths get a JSON 404.
func (h *FrontendHandler) Fallback(c *gin.Context) {
	path := c.Request.URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		middleware.NotFound()(c)
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		middleware.NotFound()(c)
		return
	}
	c.File(filepath.Join(h.dir, "index.html"))
}
