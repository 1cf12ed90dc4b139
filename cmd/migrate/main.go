package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/pageza/recipeshare/backend/config"
	"github.com/pageza/recipeshare/backend/internal/database"
	"github.com/pageza/recipeshare/backend/internal/logging"
	"github.com/pageza/recipeshare/backend/migrations"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Format:      "console",
		ServiceName: "recipeshare-migrate",
		Environment: string(cfg.Environment),
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// DATABASE_URL wins over the configured connection settings
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		if cfg.Database.Driver != "postgres" {
			logger.Fatal("SQL migrations target PostgreSQL; set DATABASE_URL or RECIPESHARE_DATABASE_DRIVER=postgres")
		}
		dsn = cfg.Database.DSN()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	migrator := database.NewMigrator(db, migrations.FS, logger)

	if *rollback {
		name, err := migrator.Rollback(ctx)
		if errors.Is(err, database.ErrNoMigrations) {
			fmt.Println("No migrations to rollback")
			return
		}
		if err != nil {
			logger.Fatal("Rollback failed", zap.Error(err))
		}
		fmt.Printf("Successfully rolled back migration: %s\n", name)
		return
	}

	applied, err := migrator.Up(ctx)
	if err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	for _, name := range applied {
		fmt.Printf("Successfully applied migration: %s\n", name)
	}
	fmt.Println("All migrations applied successfully.")
}
