package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/middleware"
	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/internal/service"
)

// RecipeHandler serves recipe CRUD, save/like toggles and per-user listings
type RecipeHandler struct {
	recipes   service.IRecipeService
	maxMemory int64
}

// NewRecipeHandler creates a handler that buffers at most maxMemory bytes of
// multipart data in memory
func NewRecipeHandler(recipes service.IRecipeService, maxMemory int64) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		maxMemory: maxMemory,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", middleware.RequireSession(), h.CreateRecipe)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", middleware.RequireSession(), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.RequireSession(), h.DeleteRecipe)
		recipes.POST("/:id/save", middleware.RequireSession(), h.ToggleSave)
		recipes.POST("/:id/like", middleware.RequireSession(), h.ToggleLike)
	}

	router.GET("/my-recipes", middleware.RequireSession(), h.MyRecipes)
	router.GET("/my-saved-recipes", h.MySavedRecipes)
	router.GET("/my-saved-recipes-status", h.SavedStatus)
	router.GET("/my-liked-recipes-status", h.LikedStatus)
	router.GET("/users/:id/recipes", h.UserRecipes)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	recipes, err := h.recipes.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ToResponses(recipes))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := parseID(c, "id", "recipe")
	if err != nil {
		c.Error(err)
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe.ToResponse())
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	if err := parseForm(c, h.maxMemory); err != nil {
		c.Error(err)
		return
	}

	image, closer, err := formImage(c)
	if err != nil {
		c.Error(err)
		return
	}
	defer closer.Close()

	actor, _ := middleware.CurrentIdentity(c)
	input := service.RecipeInput{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Ingredients:  c.PostForm("ingredients"),
		Instructions: c.PostForm("instructions"),
	}

	recipe, err := h.recipes.Create(c.Request.Context(), actor, input, image)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Recipe added successfully!",
		"recipe":  recipe.ToResponse(),
	})
}

// UpdateRecipe applies the form fields that are present. image_removed=true
// clears the image unless a new one is uploaded.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := parseID(c, "id", "recipe")
	if err != nil {
		c.Error(err)
		return
	}
	if err := parseForm(c, h.maxMemory); err != nil {
		c.Error(err)
		return
	}

	image, closer, err := formImage(c)
	if err != nil {
		c.Error(err)
		return
	}
	defer closer.Close()

	upd := service.RecipeUpdate{
		Title:        optionalField(c, "title"),
		Description:  optionalField(c, "description"),
		Ingredients:  optionalField(c, "ingredients"),
		Instructions: optionalField(c, "instructions"),
		Image:        image,
		RemoveImage:  c.PostForm("image_removed") == "true",
	}

	actor, _ := middleware.CurrentIdentity(c)
	recipe, err := h.recipes.Update(c.Request.Context(), actor, id, upd)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe updated successfully!",
		"recipe":  recipe.ToResponse(),
	})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := parseID(c, "id", "recipe")
	if err != nil {
		c.Error(err)
		return
	}

	actor, _ := middleware.CurrentIdentity(c)
	if err := h.recipes.Delete(c.Request.Context(), actor, id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully!"})
}

func (h *RecipeHandler) ToggleSave(c *gin.Context) {
	id, err := parseID(c, "id", "recipe")
	if err != nil {
		c.Error(err)
		return
	}

	actor, _ := middleware.CurrentIdentity(c)
	saved, err := h.recipes.ToggleSave(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(err)
		return
	}

	message := "Recipe unsaved!"
	if saved {
		message = "Recipe saved!"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "saved": saved})
}

func (h *RecipeHandler) ToggleLike(c *gin.Context) {
	id, err := parseID(c, "id", "recipe")
	if err != nil {
		c.Error(err)
		return
	}

	actor, _ := middleware.CurrentIdentity(c)
	res, err := h.recipes.ToggleLike(c.Request.Context(), actor, id)
	if err != nil {
		c.Error(err)
		return
	}

	message := "Recipe unliked!"
	if res.Liked {
		message = "Recipe liked!"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "liked": res.Liked, "likes": res.Likes})
}

func (h *RecipeHandler) MyRecipes(c *gin.Context) {
	actor, _ := middleware.CurrentIdentity(c)
	recipes, err := h.recipes.ListByCreator(c.Request.Context(), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ToResponses(recipes))
}

// MySavedRecipes lists the caller's saved recipes, or nothing when anonymous
func (h *RecipeHandler) MySavedRecipes(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, []models.RecipeResponse{})
		return
	}

	recipes, err := h.recipes.SavedRecipes(c.Request.Context(), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ToResponses(recipes))
}

func (h *RecipeHandler) SavedStatus(c *gin.Context) {
	ids := []uint{}
	if actor, ok := middleware.CurrentIdentity(c); ok {
		var err error
		if ids, err = h.recipes.SavedRecipeIDs(c.Request.Context(), actor.UserID); err != nil {
			c.Error(err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"savedRecipeIds": ids})
}

func (h *RecipeHandler) LikedStatus(c *gin.Context) {
	ids := []uint{}
	if actor, ok := middleware.CurrentIdentity(c); ok {
		var err error
		if ids, err = h.recipes.LikedRecipeIDs(c.Request.Context(), actor.UserID); err != nil {
			c.Error(err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"likedRecipeIds": ids})
}

func (h *RecipeHandler) UserRecipes(c *gin.Context) {
	id, err := parseID(c, "id", "user")
	if err != nil {
		c.Error(err)
		return
	}

	recipes, err := h.recipes.ListByCreator(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ToResponses(recipes))
}

func optionalField(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// formImage opens the "image" part of a parsed multipart form. A missing or
// empty part yields a nil upload.
func formImage(c *gin.Context) (*service.ImageUpload, io.Closer, error) {
	if c.Request.MultipartForm == nil {
		return nil, nopCloser{}, nil
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nopCloser{}, nil
	}
	if err != nil {
		return nil, nil, bodyError(err)
	}
	if fh.Filename == "" {
		return nil, nopCloser{}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	return &service.ImageUpload{Filename: fh.Filename, Content: f}, f, nil
}
