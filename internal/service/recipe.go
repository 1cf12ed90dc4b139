package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/metrics"
	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/internal/storage"
	"github.com/pageza/recipeshare/backend/internal/types"
)

// RecipeInput holds the text fields of a new recipe
type RecipeInput struct {
	Title        string `validate:"required,max=100"`
	Description  string `validate:"required"`
	Ingredients  string `validate:"required"`
	Instructions string `validate:"required"`
}

// ImageUpload is an uploaded image file as received from the client
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// RecipeUpdate is a partial update. Nil fields are left unchanged.
// RemoveImage clears the image unless a new Image is also given.
type RecipeUpdate struct {
	Title        *string
	Description  *string
	Ingredients  *string
	Instructions *string
	Image        *ImageUpload
	RemoveImage  bool
}

// LikeResult is the outcome of a like toggle
type LikeResult struct {
	Liked bool
	Likes int
}

// RecipeService handles recipe operations
type RecipeService struct {
	db      *gorm.DB
	images  storage.ImageStore
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images storage.ImageStore, logger *zap.Logger, m *metrics.Metrics) *RecipeService {
	return &RecipeService{
		db:      db,
		images:  images,
		logger:  logger,
		metrics: m,
	}
}

func requireActor(actor types.Identity) error {
	if actor.UserID == 0 {
		return apperror.Unauthorized("login required")
	}
	return nil
}

// Create validates input, stores the image and persists the recipe
func (s *RecipeService) Create(ctx context.Context, actor types.Identity, in RecipeInput, image *ImageUpload) (*models.Recipe, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Ingredients = models.NormalizeIngredients(in.Ingredients)
	in.Instructions = strings.TrimSpace(in.Instructions)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	if image == nil || image.Filename == "" {
		return nil, apperror.BadRequest("no image file was uploaded")
	}
	if !storage.AllowedImage(image.Filename) {
		return nil, apperror.BadRequest(storage.ErrDisallowedType.Error())
	}

	name, err := s.images.Save(ctx, image.Filename, image.Content)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("saving image: %w", err))
	}

	recipe := models.Recipe{
		Title:         in.Title,
		Description:   in.Description,
		Ingredients:   in.Ingredients,
		Instructions:  in.Instructions,
		ImageFilename: &name,
		CreatorID:     actor.UserID,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&recipe).Error; err != nil {
		s.removeImage(ctx, name)
		return nil, apperror.Internal(fmt.Errorf("creating recipe: %w", err))
	}

	s.metrics.RecipeCreated()
	s.logger.Info("recipe created",
		zap.Uint("recipe_id", recipe.ID),
		zap.Uint("user_id", actor.UserID))

	return s.Get(ctx, recipe.ID)
}

// Get retrieves a recipe with its creator
func (s *RecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Preload("Creator").First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("recipe not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &recipe, nil
}

func (s *RecipeService) getOwned(ctx context.Context, actor types.Identity, id uint, verb string) (*models.Recipe, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.CreatorID != actor.UserID {
		return nil, apperror.Forbidden("you are not allowed to " + verb + " this recipe")
	}
	return recipe, nil
}

// Update applies a partial update on behalf of the recipe's creator
func (s *RecipeService) Update(ctx context.Context, actor types.Identity, id uint, upd RecipeUpdate) (*models.Recipe, error) {
	recipe, err := s.getOwned(ctx, actor, id, "edit")
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	text := []struct {
		column string
		value  *string
		max    int
	}{
		{"title", upd.Title, 100},
		{"description", upd.Description, 0},
		{"ingredients", upd.Ingredients, 0},
		{"instructions", upd.Instructions, 0},
	}
	for _, f := range text {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if f.column == "ingredients" {
			v = models.NormalizeIngredients(v)
		}
		if v == "" {
			return nil, apperror.BadRequest(f.column + " cannot be empty")
		}
		if f.max > 0 && len([]rune(v)) > f.max {
			return nil, apperror.BadRequest(fmt.Sprintf("%s must be at most %d characters", f.column, f.max))
		}
		updates[f.column] = v
	}

	if upd.Image != nil && !storage.AllowedImage(upd.Image.Filename) {
		return nil, apperror.BadRequest(storage.ErrDisallowedType.Error())
	}

	oldImage := recipe.ImageFilename
	var newImage string
	switch {
	case upd.Image != nil:
		newImage, err = s.images.Save(ctx, upd.Image.Filename, upd.Image.Content)
		if err != nil {
			return nil, apperror.Internal(fmt.Errorf("saving image: %w", err))
		}
		updates["image_filename"] = newImage
	case upd.RemoveImage && oldImage != nil:
		updates["image_filename"] = nil
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			if newImage != "" {
				s.removeImage(ctx, newImage)
			}
			return nil, apperror.Internal(fmt.Errorf("updating recipe: %w", err))
		}
	}

	if _, replaced := updates["image_filename"]; replaced && oldImage != nil {
		s.removeImage(ctx, *oldImage)
	}

	return s.Get(ctx, id)
}

// Delete removes the recipe, every save and like of it, then its image
func (s *RecipeService) Delete(ctx context.Context, actor types.Identity, id uint) error {
	recipe, err := s.getOwned(ctx, actor, id, "delete")
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.SavedRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.LikedRecipe{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return apperror.Internal(fmt.Errorf("deleting recipe: %w", err))
	}

	if recipe.ImageFilename != nil {
		s.removeImage(ctx, *recipe.ImageFilename)
	}

	s.metrics.RecipeDeleted()
	s.logger.Info("recipe deleted",
		zap.Uint("recipe_id", id),
		zap.Uint("user_id", actor.UserID))
	return nil
}

// List returns every recipe, newest first
func (s *RecipeService) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Order("created_at DESC, id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return recipes, nil
}

// ListByCreator returns the recipes a user created, newest first
func (s *RecipeService) ListByCreator(ctx context.Context, userID uint) ([]models.Recipe, error) {
	if _, err := models.GetUser(ctx, s.db, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err)
	}

	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Where("creator_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return recipes, nil
}

func ensureRecipe(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperror.NotFound("recipe not found")
	}
	return nil
}

func toggleError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("toggle already in progress")
	}
	return apperror.Internal(err)
}

// ToggleSave flips whether actor has saved the recipe and returns the new state
func (s *RecipeService) ToggleSave(ctx context.Context, actor types.Identity, recipeID uint) (bool, error) {
	if err := requireActor(actor); err != nil {
		return false, err
	}

	var saved bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRecipe(tx, recipeID); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND recipe_id = ?", actor.UserID, recipeID).Delete(&models.SavedRecipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			saved = false
			return nil
		}

		link := models.SavedRecipe{UserID: actor.UserID, RecipeID: recipeID}
		if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
			return err
		}
		saved = true
		return nil
	})
	if err != nil {
		return false, toggleError(err)
	}

	s.metrics.RecipeToggled("save", saved)
	return saved, nil
}

// ToggleLike flips whether actor likes the recipe and keeps the counter in
// step within the same transaction
func (s *RecipeService) ToggleLike(ctx context.Context, actor types.Identity, recipeID uint) (LikeResult, error) {
	if err := requireActor(actor); err != nil {
		return LikeResult{}, err
	}

	var result LikeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureRecipe(tx, recipeID); err != nil {
			return err
		}

		recipes := func() *gorm.DB {
			return tx.Model(&models.Recipe{}).Where("id = ?", recipeID)
		}

		res := tx.Where("user_id = ? AND recipe_id = ?", actor.UserID, recipeID).Delete(&models.LikedRecipe{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			err := recipes().UpdateColumn("likes", gorm.Expr("CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END")).Error
			if err != nil {
				return err
			}
			result.Liked = false
		} else {
			link := models.LikedRecipe{UserID: actor.UserID, RecipeID: recipeID}
			if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
				return err
			}
			if err := recipes().UpdateColumn("likes", gorm.Expr("likes + ?", 1)).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		return recipes().Select("likes").Scan(&result.Likes).Error
	})
	if err != nil {
		return LikeResult{}, toggleError(err)
	}

	s.metrics.RecipeToggled("like", result.Liked)
	return result, nil
}

// SavedRecipes returns the recipes a user saved, most recently saved first
func (s *RecipeService) SavedRecipes(ctx context.Context, userID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Select("recipes.*").
		Preload("Creator").
		Joins("JOIN saved_recipes ON saved_recipes.recipe_id = recipes.id").
		Where("saved_recipes.user_id = ?", userID).
		Order("saved_recipes.created_at DESC, recipes.id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return recipes, nil
}

// SavedRecipeIDs returns the IDs of recipes a user saved
func (s *RecipeService) SavedRecipeIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.linkedIDs(ctx, &models.SavedRecipe{}, userID)
}

// LikedRecipeIDs returns the IDs of recipes a user liked
func (s *RecipeService) LikedRecipeIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.linkedIDs(ctx, &models.LikedRecipe{}, userID)
}

func (s *RecipeService) linkedIDs(ctx context.Context, model interface{}, userID uint) ([]uint, error) {
	ids := []uint{}
	err := s.db.WithContext(ctx).
		Model(model).
		Where("user_id = ?", userID).
		Order("recipe_id").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return ids, nil
}

// removeImage deletes a stored image. Failures only leave an orphaned file,
// so they are logged rather than returned.
func (s *RecipeService) removeImage(ctx context.Context, name string) {
	if err := s.images.Delete(ctx, name); err != nil {
		s.logger.Warn("failed to remove image", zap.String("image", name), zap.Error(err))
	}
}
