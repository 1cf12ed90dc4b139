package testhelpers

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/internal/models"
)

// TestPassword is the plaintext password of users made by CreateTestUser
const TestPassword = "testpassword123"

// CreateTestUser inserts a user whose password is TestPassword
func CreateTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// CreateTestRecipe inserts a recipe without an image owned by creator
func CreateTestRecipe(t *testing.T, db *gorm.DB, creator *models.User, title string) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		Title:        title,
		Description:  "A test recipe",
		Ingredients:  "egg,flour,milk",
		Instructions: "Mix everything",
		CreatorID:    creator.ID,
	}
	if err := db.Omit("Creator").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", title, err)
	}
	recipe.Creator = *creator
	return recipe
}
