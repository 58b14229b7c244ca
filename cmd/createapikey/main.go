package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/config"
	"github.com/makkenzo/alttext-service-api/internal/service"
	"github.com/makkenzo/alttext-service-api/internal/storage/postgres"
	"github.com/makkenzo/alttext-service-api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	userFlag := flag.String("user", "", "Owner user ID (UUID)")
	name := flag.String("name", "default", "Human readable key name")
	flag.Parse()

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		log.Fatalf("-user must be a valid UUID: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url (DATABASE_URL) is required")
	}

	appLogger, err := logger.NewZapLogger("warn", "console")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()
	pool, err := postgres.NewPgxPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	keyService := service.NewAPIKeyService(postgres.NewAPIKeyRepository(pool, appLogger), appLogger)
	issued, err := keyService.CreateAPIKey(ctx, userID, *name)
	if err != nil {
		log.Fatalf("Failed to create API key: %v", err)
	}

	fmt.Printf("Generated API Key (SAVE THIS securely, it is not stored):\n%s\n\n", issued.FullKey)
	fmt.Printf("Prefix: %s\n", issued.Prefix)
	fmt.Printf("Key ID: %s\n", issued.ID)
}
