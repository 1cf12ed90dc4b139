package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/internal/service"
	"github.com/pageza/recipeshare/backend/internal/storage"
	"github.com/pageza/recipeshare/backend/internal/testhelpers"
	"github.com/pageza/recipeshare/backend/internal/types"
)

type recipeFixture struct {
	db      *gorm.DB
	svc     *service.RecipeService
	dir     string
	alice   types.Identity
	bob     types.Identity
	aliceID uint
}

func setupRecipeTest(t *testing.T) *recipeFixture {
	db := testhelpers.NewSQLiteDB(t)
	dir := t.TempDir()
	images, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	alice := testhelpers.CreateTestUser(t, db, "alice@example.com")
	bob := testhelpers.CreateTestUser(t, db, "bob@example.com")

	return &recipeFixture{
		db:      db,
		svc:     service.NewRecipeService(db, images, zap.NewNop(), nil),
		dir:     dir,
		alice:   types.Identity{UserID: alice.ID, Email: alice.Email},
		bob:     types.Identity{UserID: bob.ID, Email: bob.Email},
		aliceID: alice.ID,
	}
}

func pancakes() service.RecipeInput {
	return service.RecipeInput{
		Title:        "Pancakes",
		Description:  "Fluffy breakfast",
		Ingredients:  "egg, flour, milk",
		Instructions: "Mix and fry",
	}
}

func image(name string) *service.ImageUpload {
	return &service.ImageUpload{Filename: name, Content: strings.NewReader("image-bytes")}
}

func (f *recipeFixture) files(t *testing.T) []string {
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *recipeFixture) create(t *testing.T, actor types.Identity) *models.Recipe {
	recipe, err := f.svc.Create(context.Background(), actor, pancakes(), image("pancakes.png"))
	require.NoError(t, err)
	return recipe
}

func TestCreateRecipe(t *testing.T) {
	f := setupRecipeTest(t)

	recipe := f.create(t, f.alice)

	resp := recipe.ToResponse()
	assert.Equal(t, "Pancakes", resp.Title)
	assert.Equal(t, []string{"egg", "flour", "milk"}, resp.Ingredients)
	assert.Equal(t, 0, resp.Likes)
	assert.Equal(t, f.aliceID, resp.CreatorID)
	assert.Equal(t, "alice@example.com", resp.CreatorEmail)
	require.NotNil(t, recipe.ImageFilename)
	assert.FileExists(t, filepath.Join(f.dir, *recipe.ImageFilename))
}

func TestCreateRecipeValidation(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input func() service.RecipeInput
		image *service.ImageUpload
		kind  apperror.Kind
	}{
		{"blank title", func() service.RecipeInput { in := pancakes(); in.Title = "   "; return in }, image("a.png"), apperror.KindBadRequest},
		{"blank ingredients", func() service.RecipeInput { in := pancakes(); in.Ingredients = " , "; return in }, image("a.png"), apperror.KindBadRequest},
		{"title too long", func() service.RecipeInput { in := pancakes(); in.Title = strings.Repeat("x", 101); return in }, image("a.png"), apperror.KindBadRequest},
		{"missing image", pancakes, nil, apperror.KindBadRequest},
		{"disallowed image type", pancakes, image("virus.exe"), apperror.KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, f.alice, tt.input(), tt.image)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.files(t))
}

func TestCreateRecipeRequiresIdentity(t *testing.T) {
	f := setupRecipeTest(t)

	_, err := f.svc.Create(context.Background(), types.Identity{}, pancakes(), image("a.png"))
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}

func TestGetRecipeNotFound(t *testing.T) {
	f := setupRecipeTest(t)

	_, err := f.svc.Get(context.Background(), 404)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestUpdateRecipePartial(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice)

	title := "Better Pancakes"
	updated, err := f.svc.Update(ctx, f.alice, recipe.ID, service.RecipeUpdate{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Better Pancakes", updated.Title)
	assert.Equal(t, recipe.Description, updated.Description)
	assert.Equal(t, recipe.Ingredients, updated.Ingredients)
	assert.Equal(t, recipe.ImageFilename, updated.ImageFilename)
}

func TestUpdateRecipeRejectsBlankField(t *testing.T) {
	f := setupRecipeTest(t)
	recipe := f.create(t, f.alice)

	blank := "  "
	_, err := f.svc.Update(context.Background(), f.alice, recipe.ID, service.RecipeUpdate{Instructions: &blank})
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
}

func TestUpdateRecipeReplacesImage(t *testing.T) {
	f := setupRecipeTest(t)
	recipe := f.create(t, f.alice)
	oldImage := *recipe.ImageFilename

	updated, err := f.svc.Update(context.Background(), f.alice, recipe.ID, service.RecipeUpdate{Image: image("new.jpg")})
	require.NoError(t, err)

	require.NotNil(t, updated.ImageFilename)
	assert.NotEqual(t, oldImage, *updated.ImageFilename)
	assert.Equal(t, []string{*updated.ImageFilename}, f.files(t))
}

func TestUpdateRecipeRemovesImage(t *testing.T) {
	f := setupRecipeTest(t)
	recipe := f.create(t, f.alice)

	updated, err := f.svc.Update(context.Background(), f.alice, recipe.ID, service.RecipeUpdate{RemoveImage: true})
	require.NoError(t, err)

	assert.Nil(t, updated.ImageFilename)
	assert.Nil(t, updated.ToResponse().ImageURL)
	assert.Empty(t, f.files(t))
}

func TestUpdateRecipeNewImageWinsOverRemoval(t *testing.T) {
	f := setupRecipeTest(t)
	recipe := f.create(t, f.alice)

	updated, err := f.svc.Update(context.Background(), f.alice, recipe.ID, service.RecipeUpdate{
		Image:       image("fresh.gif"),
		RemoveImage: true,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.ImageFilename)
	assert.Equal(t, []string{*updated.ImageFilename}, f.files(t))
}

func TestUpdateRecipeRejectsBadImageBeforeChanges(t *testing.T) {
	f := setupRecipeTest(t)
	recipe := f.create(t, f.alice)

	title := "Changed"
	_, err := f.svc.Update(context.Background(), f.alice, recipe.ID, service.RecipeUpdate{
		Title: &title,
		Image: image("notes.txt"),
	})
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))

	unchanged, err := f.svc.Get(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", unchanged.Title)
	assert.Equal(t, recipe.ImageFilename, unchanged.ImageFilename)
}

func TestOnlyCreatorCanModify(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice)

	title := "Stolen"
	_, err := f.svc.Update(ctx, f.bob, recipe.ID, service.RecipeUpdate{Title: &title})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	err = f.svc.Delete(ctx, f.bob, recipe.ID)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	_, err = f.svc.Update(ctx, f.bob, 9999, service.RecipeUpdate{Title: &title})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDeleteRecipeCascades(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice)

	_, err := f.svc.ToggleSave(ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleLike(ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleSave(ctx, f.alice, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, f.alice, recipe.ID))

	_, err = f.svc.Get(ctx, recipe.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	for _, who := range []types.Identity{f.alice, f.bob} {
		saved, err := f.svc.SavedRecipeIDs(ctx, who.UserID)
		require.NoError(t, err)
		assert.Empty(t, saved)
		liked, err := f.svc.LikedRecipeIDs(ctx, who.UserID)
		require.NoError(t, err)
		assert.Empty(t, liked)
	}
	assert.Empty(t, f.files(t))
}

func TestToggleSaveIsInvolution(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice)

	saved, err := f.svc.ToggleSave(ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	ids, err := f.svc.SavedRecipeIDs(ctx, f.bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, []uint{recipe.ID}, ids)

	saved, err = f.svc.ToggleSave(ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	ids, err = f.svc.SavedRecipeIDs(ctx, f.bob.UserID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestToggleLikeIsInvolution(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice)

	first, err := f.svc.ToggleLike(ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.LikeResult{Liked: true, Likes: 1}, first)

	other, err := f.svc.ToggleLike(ctx, f.alice, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.LikeResult{Liked: true, Likes: 2}, other)

	second, err := f.svc.ToggleLike(ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, service.LikeResult{Liked: false, Likes: 1}, second)

	ids, err := f.svc.LikedRecipeIDs(ctx, f.alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, []uint{recipe.ID}, ids)
}

func TestLikeCounterNeverNegative(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	recipe := f.create(t, f.alice)

	// a like row without a matching counter increment
	require.NoError(t, f.db.Omit("User", "Recipe").Create(&models.LikedRecipe{UserID: f.bob.UserID, RecipeID: recipe.ID}).Error)

	res, err := f.svc.ToggleLike(ctx, f.bob, recipe.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.Likes)

	for i := 0; i < 5; i++ {
		res, err = f.svc.ToggleLike(ctx, f.alice, recipe.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Likes, 0)
	}
	assert.Equal(t, 1, res.Likes)
}

func TestTogglesRequireRecipeAndIdentity(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	_, err := f.svc.ToggleSave(ctx, f.bob, 9999)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	_, err = f.svc.ToggleLike(ctx, f.bob, 9999)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	recipe := f.create(t, f.alice)
	_, err = f.svc.ToggleSave(ctx, types.Identity{}, recipe.ID)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	_, err = f.svc.ToggleLike(ctx, types.Identity{}, recipe.ID)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
}

func TestListRecipes(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	first := f.create(t, f.alice)
	second := f.create(t, f.bob)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	assert.Equal(t, "bob@example.com", all[0].Creator.Email)

	mine, err := f.svc.ListByCreator(ctx, f.alice.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)

	_, err = f.svc.ListByCreator(ctx, 9999)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestSavedRecipes(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	first := f.create(t, f.alice)
	second := f.create(t, f.alice)
	f.create(t, f.alice)

	_, err := f.svc.ToggleSave(ctx, f.bob, second.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleSave(ctx, f.bob, first.ID)
	require.NoError(t, err)

	saved, err := f.svc.SavedRecipes(ctx, f.bob.UserID)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	got := []uint{saved[0].ID, saved[1].ID}
	assert.ElementsMatch(t, []uint{first.ID, second.ID}, got)
	assert.Equal(t, "alice@example.com", saved[0].Creator.Email)

	none, err := f.svc.SavedRecipes(ctx, f.alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
