package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/VaibhavRohilla/plinko/internal/api/handlers"
	"github.com/VaibhavRohilla/plinko/internal/config"
	"github.com/VaibhavRohilla/plinko/internal/middleware"
	"github.com/VaibhavRohilla/plinko/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	// No-cache middleware in development so the web client never renders a
	// stale board
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Session endpoints
		v1.POST("/session", handlers.StartSession(db, cfg))

		// Board endpoints (public reads)
		board := v1.Group("/board")
		{
			board.GET("", handlers.GetBoard)
			board.PUT("/config", handlers.UpdateBoardConfig(db, cfg))
			board.GET("/stats", handlers.GetEngineStats(db))
		}

		// Game endpoints (session required)
		gameGroup := v1.Group("/game", handlers.RequireSession(cfg))
		{
			gameGroup.POST("/drop", handlers.DropBall(db, cfg))
			gameGroup.GET("/balance", handlers.GetBalance(db))
			gameGroup.POST("/deposit", handlers.DepositFunds(db, cfg))
		}

		// Drop history (public, mirrors the live feed)
		v1.GET("/history", handlers.GetHistory)

		// Spectator stream: live frames plus resolve events
		v1.GET("/ws", ws.HandleWebSocket)
	}
}
