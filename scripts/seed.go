//go:build ignore

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/yuta/recipe-box/internal/auth"
	"github.com/yuta/recipe-box/internal/database"
	"github.com/yuta/recipe-box/internal/database/models"
	"github.com/yuta/recipe-box/pkg/config"
	"github.com/yuta/recipe-box/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	email := os.Getenv("SEED_EMAIL")
	password := os.Getenv("SEED_PASSWORD")
	if email == "" {
		email = "demo@example.com"
	}
	if password == "" {
		password = "password1"
	}

	var existing models.User
	if err := db.Where("email = ?", auth.NormalizeEmail(email)).First(&existing).Error; err == nil {
		fmt.Printf("Demo user already exists: %s\n", existing.Email)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := models.User{
		Email:          auth.NormalizeEmail(email),
		PasswordDigest: hash,
		Username:       "demo",
		Role:           models.RoleNormal,
		ConfirmedAt:    &now,
		Tokens:         models.TokenMap{},
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create demo user: %v", err)
	}

	recipe := models.Recipe{
		UserID: user.ID,
		Name:   "Chicken curry",
		Notes:  "Brown the chicken first, then simmer for 30 minutes.",
		Ingredients: []models.Ingredient{
			{Name: "chicken thigh", Quantity: 400, Unit: "g", Category: models.CategoryIngredient},
			{Name: "onion", Quantity: 2, Unit: "pcs", Category: models.CategoryIngredient},
			{Name: "curry roux", Quantity: 0.5, Unit: "box", Category: models.CategorySeasoning},
		},
	}
	if err := db.Create(&recipe).Error; err != nil {
		log.Fatalf("failed to create demo recipe: %v", err)
	}

	fmt.Printf("Demo user created successfully!\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Password: %s\n", password)
}
