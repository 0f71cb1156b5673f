package database

import (
	"fmt"
	"time"

	"github.com/strandhq/strand/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection
func Initialize(databaseURL, environment string) error {
	gormLogger := logger.Default
	if environment == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
		// Engagement toggles rely on ErrDuplicatedKey to detect lost races
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return MigrateOn(DB)
}

// MigrateOn runs auto-migration against an explicit connection. Tests use it
// with in-memory sqlite databases.
func MigrateOn(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Thread{},
		&models.ThreadLike{},
		&models.ThreadBookmark{},
		&models.ThreadRepost{},
		&models.ThreadStats{},
		&models.Tag{},
		&models.ThreadTag{},
		&models.ThreadMention{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Feed queries order on (deleted, created_at, id); the composite unique
	// indexes on edge tables come from the model tags.
	db.Exec("CREATE INDEX IF NOT EXISTS idx_threads_feed ON threads (deleted, created_at DESC, id DESC)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_thread_stats_score ON thread_stats (score DESC, thread_id DESC)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
