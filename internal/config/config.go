package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration, loaded from the environment.
// Ranking tuning constants live here rather than inline so they can be
// changed without a deploy of new code.
type Config struct {
	// Server
	Port        string
	Environment string

	// Storage
	DatabaseURL string
	RedisAddr   string

	// Auth
	JWTSecret string

	// Logging
	LogLevel string
	LogFile  string

	// Ranking
	RankingGravity         float64
	RecommendationMinScore float64

	// Feeds
	FeedDefaultLimit int
	FeedMaxLimit     int

	// Background tasks
	TaskQueueSize int
	TaskWorkers   int

	// Rate limiting (writes only; 0 disables)
	RateLimitPerMinute int
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8686"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),

		RankingGravity:         getEnvFloat("RANKING_GRAVITY", 1.8),
		RecommendationMinScore: getEnvFloat("RECOMMENDATION_MIN_SCORE", 0.001),

		FeedDefaultLimit: getEnvInt("FEED_DEFAULT_LIMIT", 30),
		FeedMaxLimit:     getEnvInt("FEED_MAX_LIMIT", 100),

		TaskQueueSize: getEnvInt("TASK_QUEUE_SIZE", 256),
		TaskWorkers:   getEnvInt("TASK_WORKERS", 4),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	if cfg.DatabaseURL == "" {
		// Fallback to individual components, matching docker-compose defaults
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "strand")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	if cfg.JWTSecret == "" && cfg.Environment != "development" {
		return nil, fmt.Errorf("JWT_SECRET is required outside development")
	}

	if cfg.RankingGravity <= 0 {
		return nil, fmt.Errorf("RANKING_GRAVITY must be positive, got %v", cfg.RankingGravity)
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
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
