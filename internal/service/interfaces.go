package service

import (
	"context"

	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/internal/types"
)

// IAuthService defines the interface for account operations
type IAuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, actor types.Identity, in RecipeInput, image *ImageUpload) (*models.Recipe, error)
	Get(ctx context.Context, id uint) (*models.Recipe, error)
	Update(ctx context.Context, actor types.Identity, id uint, upd RecipeUpdate) (*models.Recipe, error)
	Delete(ctx context.Context, actor types.Identity, id uint) error
	List(ctx context.Context) ([]models.Recipe, error)
	ListByCreator(ctx context.Context, userID uint) ([]models.Recipe, error)

	ToggleSave(ctx context.Context, actor types.Identity, recipeID uint) (bool, error)
	ToggleLike(ctx context.Context, actor types.Identity, recipeID uint) (LikeResult, error)
	SavedRecipes(ctx context.Context, userID uint) ([]models.Recipe, error)
	SavedRecipeIDs(ctx context.Context, userID uint) ([]uint, error)
	LikedRecipeIDs(ctx context.Context, userID uint) ([]uint, error)
}

var (
	_ IAuthService   = (*AuthService)(nil)
	_ IRecipeService = (*RecipeService)(nil)
)
