package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/migrations"
)

const rollbackSuffix = "_rollback.sql"

// ErrNoMigrations is returned by Rollback when nothing has been applied
var ErrNoMigrations = errors.New("no migrations to roll back")

// Migrate brings the schema up to date. SQLite uses GORM auto-migration;
// PostgreSQL applies the embedded SQL migrations.
func Migrate(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		logger.Info("using GORM auto-migration for SQLite")
		return db.WithContext(ctx).AutoMigrate(models.All()...)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	_, err = NewMigrator(sqlDB, migrations.FS, logger).Up(ctx)
	return err
}

// Migrator applies versioned SQL files tracked in schema_migrations
type Migrator struct {
	db     *sql.DB
	files  fs.FS
	logger *zap.Logger
}

// NewMigrator creates a migrator reading *.sql files from the root of files
func NewMigrator(db *sql.DB, files fs.FS, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, files: files, logger: logger}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) pending() ([]string, error) {
	entries, err := fs.ReadDir(m.files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, rollbackSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func versionOf(name string) string {
	return strings.SplitN(name, "_", 2)[0]
}

// Up applies every migration not yet recorded and returns their names
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	names, err := m.pending()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range names {
		version := versionOf(name)

		var count int
		if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = $1", version).Scan(&count); err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			m.logger.Debug("migration already applied", zap.String("name", name))
			continue
		}

		content, err := fs.ReadFile(m.files, name)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		if err := m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", version, name); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		}); err != nil {
			return applied, err
		}

		m.logger.Info("applied migration", zap.String("name", name))
		applied = append(applied, name)
	}

	return applied, nil
}

// Rollback reverts the most recently applied migration using its
// companion rollback file and returns its name
func (m *Migrator) Rollback(ctx context.Context) (string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return "", err
	}

	var version, name string
	err := m.db.QueryRowContext(ctx,
		"SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1",
	).Scan(&version, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoMigrations
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	rollbackFile := strings.TrimSuffix(name, ".sql") + rollbackSuffix
	content, err := fs.ReadFile(m.files, rollbackFile)
	if err != nil {
		return "", fmt.Errorf("rollback file not found: %s: %w", rollbackFile, err)
	}

	if err := m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute rollback: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	}); err != nil {
		return "", err
	}

	m.logger.Info("rolled back migration", zap.String("name", name))
	return name, nil
}

func (m *Migrator) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
