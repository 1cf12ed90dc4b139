package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipeshare/backend/internal/models"
)

func TestNewSQLiteDB(t *testing.T) {
	db := NewSQLiteDB(t)

	user := CreateTestUser(t, db, "helper@example.com")
	recipe := CreateTestRecipe(t, db, user, "Omelette")

	var loaded models.Recipe
	require.NoError(t, db.Preload("Creator").First(&loaded, recipe.ID).Error)
	assert.Equal(t, "Omelette", loaded.Title)
	assert.Equal(t, "helper@example.com", loaded.Creator.Email)
}

func TestSetupTestDatabase(t *testing.T) {
	db := SetupTestDatabase(t)

	user := CreateTestUser(t, db, "pg@example.com")
	assert.NotZero(t, user.ID)
	assert.True(t, db.Migrator().HasTable("schema_migrations"))
}
