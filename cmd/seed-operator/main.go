package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/VaibhavRohilla/plinko/internal/config"
	"github.com/VaibhavRohilla/plinko/internal/database"
	"github.com/VaibhavRohilla/plinko/internal/operator"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	name := os.Getenv("OPERATOR_NAME")
	if name == "" {
		name = "calibration"
		log.Printf("Using default operator name: %s", name)
	}

	token := os.Getenv("OPERATOR_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Printf("WARNING: Using default operator token. Set OPERATOR_TOKEN env var in production!")
	}

	if err := operator.CreateOperator(db, name, token); err != nil {
		log.Fatalf("Failed to create operator account: %v", err)
	}

	log.Printf("✓ Operator account created/updated successfully")
	log.Printf("  Name: %s", name)
	log.Println("\nSend targeted drops and config changes with headers:")
	log.Printf("  X-Operator-Name: %s", name)
	log.Printf("  X-Operator-Token: %s", token)
}
