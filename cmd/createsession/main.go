package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/alttext-service-api/internal/config"
	"github.com/makkenzo/alttext-service-api/internal/service"
)

// createsession mints a session cookie value for local testing.
func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	userFlag := flag.String("user", "", "User ID (UUID)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		log.Fatalf("-user must be a valid UUID: %v", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	token, err := service.NewJWTSessions(cfg.Auth.SessionSecret, cfg.Auth.SessionIssuer).Issue(userID, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign session token: %v", err)
	}

	fmt.Printf("Cookie: %s=%s\n", cfg.Auth.SessionCookie, token)
}
