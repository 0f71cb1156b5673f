package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/strandhq/strand/backend/internal/config"
	"github.com/strandhq/strand/backend/internal/database"
	"github.com/strandhq/strand/backend/internal/engagement"
	"github.com/strandhq/strand/backend/internal/logger"
	"github.com/strandhq/strand/backend/internal/ranking"
	"github.com/strandhq/strand/backend/internal/seed"
	"github.com/strandhq/strand/backend/internal/threads"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, "seed.log"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store := engagement.NewStore(database.DB)
	recalc := ranking.NewRecalculator(database.DB, store, cfg.RankingGravity)
	service := threads.NewService(database.DB)

	seeder := seed.New(database.DB, service, store, recalc)
	if err := seeder.Run(context.Background(), 20, 5); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
