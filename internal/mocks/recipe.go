package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/internal/service"
	"github.com/pageza/recipeshare/backend/internal/types"
)

// MockRecipeService is a mock implementation of service.IRecipeService
type MockRecipeService struct {
	mock.Mock
}

var _ service.IRecipeService = (*MockRecipeService)(nil)

func (m *MockRecipeService) Create(ctx context.Context, actor types.Identity, in service.RecipeInput, image *service.ImageUpload) (*models.Recipe, error) {
	args := m.Called(ctx, actor, in, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) Get(ctx context.Context, id uint) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) Update(ctx context.Context, actor types.Identity, id uint, upd service.RecipeUpdate) (*models.Recipe, error) {
	args := m.Called(ctx, actor, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeService) Delete(ctx context.Context, actor types.Identity, id uint) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockRecipeService) List(ctx context.Context) ([]models.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeService) ListByCreator(ctx context.Context, userID uint) ([]models.Recipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeService) ToggleSave(ctx context.Context, actor types.Identity, recipeID uint) (bool, error) {
	args := m.Called(ctx, actor, recipeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecipeService) ToggleLike(ctx context.Context, actor types.Identity, recipeID uint) (service.LikeResult, error) {
	args := m.Called(ctx, actor, recipeID)
	return args.Get(0).(service.LikeResult), args.Error(1)
}

func (m *MockRecipeService) SavedRecipes(ctx context.Context, userID uint) ([]models.Recipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeService) SavedRecipeIDs(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockRecipeService) LikedRecipeIDs(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}
