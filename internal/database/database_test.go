package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/config"
	"github.com/pageza/recipeshare/backend/internal/database"
	"github.com/pageza/recipeshare/backend/internal/models"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestNewSQLiteAndMigrate(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, database.Migrate(ctx, db, zap.NewNop()))
	assert.NoError(t, database.HealthCheck(ctx, db))

	for _, table := range []string{"users", "recipes", "saved_recipes", "liked_recipes", "sessions"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}

	user := models.User{Email: "test@example.com", PasswordHash: "hashedpassword"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)
}

func TestNewUnsupportedDriver(t *testing.T) {
	_, err := database.New(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestMigratorUpAndRollback(t *testing.T) {
	db := openSQLite(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	ctx := context.Background()

	files := fstest.MapFS{
		"000001_widgets.sql":          {Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY);")},
		"000001_widgets_rollback.sql": {Data: []byte("DROP TABLE widgets;")},
		"000002_gadgets.sql":          {Data: []byte("CREATE TABLE gadgets (id INTEGER PRIMARY KEY);")},
		"000002_gadgets_rollback.sql": {Data: []byte("DROP TABLE gadgets;")},
		"README.md":                   {Data: []byte("not a migration")},
	}
	m := database.NewMigrator(sqlDB, files, zap.NewNop())

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_widgets.sql", "000002_gadgets.sql"}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	again, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	name, err := m.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "000002_gadgets.sql", name)
	assert.False(t, db.Migrator().HasTable("gadgets"))
	assert.True(t, db.Migrator().HasTable("widgets"))

	_, err = m.Rollback(ctx)
	require.NoError(t, err)
	_, err = m.Rollback(ctx)
	assert.ErrorIs(t, err, database.ErrNoMigrations)
}
