package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/internal/testhelpers"
)

func TestSeedIsIdempotent(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	ctx := context.Background()

	users, recipes, err := seed(ctx, db, bcrypt.MinCost, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, users)
	assert.Equal(t, 3, recipes)

	users, recipes, err = seed(ctx, db, bcrypt.MinCost, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, users)
	assert.Zero(t, recipes)

	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	user, err := models.GetUserByEmail(ctx, db, "jane.smith@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(demoPassword)))
}
