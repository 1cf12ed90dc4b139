package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/storage"
)

// ImageHandler serves stored recipe images
type ImageHandler struct {
	images storage.ImageStore
}

func NewImageHandler(images storage.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

func (h *ImageHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/uploads/:filename", h.ServeImage)
}

// ServeImage streams an image with a content type derived from its extension
func (h *ImageHandler) ServeImage(c *gin.Context) {
	name := c.Param("filename")
	rc, err := h.images.Open(c.Request.Context(), name)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
		c.Error(apperror.NotFound("image not found"))
		return
	}
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, -1, storage.ContentType(name), rc, nil)
}
