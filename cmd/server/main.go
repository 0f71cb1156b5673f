package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/strandhq/strand/backend/internal/config"
	"github.com/strandhq/strand/backend/internal/database"
	"github.com/strandhq/strand/backend/internal/engagement"
	"github.com/strandhq/strand/backend/internal/feed"
	"github.com/strandhq/strand/backend/internal/handlers"
	"github.com/strandhq/strand/backend/internal/logger"
	"github.com/strandhq/strand/backend/internal/middleware"
	"github.com/strandhq/strand/backend/internal/ranking"
	"github.com/strandhq/strand/backend/internal/tasks"
	"github.com/strandhq/strand/backend/internal/threads"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
	}

	// Background task runner for score recalculation
	runner := tasks.NewRunner(cfg.TaskQueueSize, cfg.TaskWorkers)
	runner.Start()
	defer runner.Stop()

	// Core services, wired once and shared by all requests
	engagementStore := engagement.NewStore(database.DB)
	recalculator := ranking.NewRecalculator(database.DB, engagementStore, cfg.RankingGravity)
	engagementStore.SetRankingCallback(func(threadID string) {
		runner.Submit("recalculate_ranking", func(ctx context.Context) error {
			return recalculator.Recalculate(ctx, threadID)
		})
	})

	feedEngine := feed.NewEngine(database.DB, cfg.FeedDefaultLimit, cfg.FeedMaxLimit, cfg.RecommendationMinScore)
	threadService := threads.NewService(database.DB)
	h := handlers.NewHandlers(threadService, feedEngine, engagementStore)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "strand-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtSecret := []byte(cfg.JWTSecret)
	writeLimit := middleware.RateLimit(redisClient, cfg.RateLimitPerMinute, time.Minute)

	api := r.Group("/api/v1")
	{
		// Feed routes; the global feed serves anonymous readers too
		feedGroup := api.Group("/feed")
		{
			feedGroup.GET("", middleware.OptionalAuth(jwtSecret), h.GetFeed)

			personal := feedGroup.Group("")
			personal.Use(middleware.Auth(jwtSecret))
			personal.GET("/recommendations", h.GetRecommendedFeed)
			personal.GET("/following", h.GetFollowingFeed)
			personal.GET("/likes", h.GetLikedFeed)
			personal.GET("/bookmarks", h.GetBookmarkedFeed)
			personal.GET("/reposts", h.GetRepostedFeed)
		}

		// Thread routes
		threadGroup := api.Group("/threads")
		{
			threadGroup.GET("/:id", middleware.OptionalAuth(jwtSecret), h.GetThread)

			authed := threadGroup.Group("")
			authed.Use(middleware.Auth(jwtSecret), writeLimit)
			authed.POST("", h.CreateThread)
			authed.PATCH("/:id", h.UpdateThread)
			authed.DELETE("/:id", h.DeleteThread)
			authed.POST("/:id/like", h.LikeThread)
			authed.POST("/:id/repost", h.RepostThread)
			authed.POST("/:id/bookmark", h.BookmarkThread)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("Strand backend starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
