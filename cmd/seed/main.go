// Command seed fills a development database with demo users and recipes.
// Running it again leaves existing rows alone.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipeshare/backend/config"
	"github.com/pageza/recipeshare/backend/internal/database"
	"github.com/pageza/recipeshare/backend/internal/logging"
	"github.com/pageza/recipeshare/backend/internal/models"
)

const demoPassword = "testpassword123"

type demoRecipe struct {
	title        string
	description  string
	ingredients  string
	instructions string
}

var demoUsers = []struct {
	email   string
	recipes []demoRecipe
}{
	{
		email: "john.doe@example.com",
		recipes: []demoRecipe{
			{
				title:        "Buttermilk Pancakes",
				description:  "Tall, fluffy pancakes for a slow weekend breakfast.",
				ingredients:  "flour, buttermilk, egg, sugar, baking powder, butter",
				instructions: "Whisk the dry ingredients. Beat in buttermilk, egg and melted butter. Cook ladlefuls on a hot griddle until bubbles form, then flip.",
			},
			{
				title:        "Tomato Basil Soup",
				description:  "A bright soup that works with canned or fresh tomatoes.",
				ingredients:  "tomatoes, onion, garlic, basil, olive oil, stock",
				instructions: "Soften onion and garlic in oil. Add tomatoes and stock and simmer 20 minutes. Blend with basil and season.",
			},
		},
	},
	{
		email: "jane.smith@example.com",
		recipes: []demoRecipe{
			{
				title:        "Chickpea Curry",
				description:  "Weeknight curry made from pantry staples.",
				ingredients:  "chickpeas, coconut milk, onion, garlic, ginger, curry powder, spinach",
				instructions: "Fry onion, garlic and ginger. Stir in curry powder, then chickpeas and coconut milk. Simmer 15 minutes and wilt in the spinach.",
			},
		},
	},
	{
		email: "admin@example.com",
	},
}

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Format:      "console",
		ServiceName: "recipeshare-seed",
		Environment: string(cfg.Environment),
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.New(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	ctx := context.Background()
	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	users, recipes, err := seed(ctx, db, cfg.Auth.BcryptCost, logger)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}

	fmt.Printf("Seeded %d users and %d recipes.\n", users, recipes)
	fmt.Printf("Password for every demo user: %s\n", demoPassword)
}

// seed inserts missing demo users and recipes and reports how many it created
func seed(ctx context.Context, db *gorm.DB, bcryptCost int, logger *zap.Logger) (int, int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcryptCost)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to hash password: %w", err)
	}

	var createdUsers, createdRecipes int
	for _, demo := range demoUsers {
		user, err := models.GetUserByEmail(ctx, db, demo.email)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = &models.User{Email: demo.email, PasswordHash: string(hash)}
			if err := models.CreateUser(ctx, db, user); err != nil {
				return createdUsers, createdRecipes, fmt.Errorf("failed to create user %s: %w", demo.email, err)
			}
			createdUsers++
			logger.Info("created user", zap.String("email", demo.email))
		case err != nil:
			return createdUsers, createdRecipes, err
		default:
			logger.Info("user already exists, skipping", zap.String("email", demo.email))
		}

		for _, r := range demo.recipes {
			var count int64
			err := db.WithContext(ctx).Model(&models.Recipe{}).
				Where("creator_id = ? AND title = ?", user.ID, r.title).
				Count(&count).Error
			if err != nil {
				return createdUsers, createdRecipes, err
			}
			if count > 0 {
				continue
			}

			recipe := models.Recipe{
				Title:        r.title,
				Description:  r.description,
				Ingredients:  models.NormalizeIngredients(r.ingredients),
				Instructions: r.instructions,
				CreatorID:    user.ID,
			}
			if err := db.WithContext(ctx).Omit(clause.Associations).Create(&recipe).Error; err != nil {
				return createdUsers, createdRecipes, fmt.Errorf("failed to create recipe %q: %w", r.title, err)
			}
			createdRecipes++
			logger.Info("created recipe", zap.String("title", r.title), zap.String("creator", demo.email))
		}
	}
	return createdUsers, createdRecipes, nil
}
