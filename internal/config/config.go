package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Board defaults
	DefaultRows  int
	DefaultRisk  string
	CanvasWidth  float64
	CanvasHeight float64

	// Betting
	MaxBetAmount      float64
	DropRateLimitSecs int
	RecentResultsSize int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/plinko?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		DefaultRows:  getEnvInt("PLINKO_DEFAULT_ROWS", 16),
		DefaultRisk:  getEnv("PLINKO_DEFAULT_RISK", "medium"),
		CanvasWidth:  getEnvFloat("PLINKO_CANVAS_WIDTH", 800),
		CanvasHeight: getEnvFloat("PLINKO_CANVAS_HEIGHT", 800),

		MaxBetAmount:      getEnvFloat("MAX_BET_AMOUNT", 1000),
		DropRateLimitSecs: getEnvInt("DROP_RATE_LIMIT_SECONDS", 1),
		RecentResultsSize: getEnvInt("RECENT_RESULTS_SIZE", 100),

		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
