package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/VaibhavRohilla/plinko/internal/api"
	"github.com/VaibhavRohilla/plinko/internal/config"
	"github.com/VaibhavRohilla/plinko/internal/database"
	"github.com/VaibhavRohilla/plinko/internal/game"
	"github.com/VaibhavRohilla/plinko/internal/migrations"
	"github.com/VaibhavRohilla/plinko/internal/redis"
	"github.com/VaibhavRohilla/plinko/internal/ws"
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

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Start the board simulation loop
	game.InitializeManager(db, rdb, cfg)
	defer game.Manager.Shutdown()

	// Wire the spectator stream: engine frames plus settlement events
	// relayed through Redis pub/sub
	ws.AttachEngine(game.Manager.Engine)
	ws.SetRedisClient(rdb, cfg)
	ws.StartEventSubscriber(context.Background())

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Plinko server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
