package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kendall-kelly/field-service-admin/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDatabase opens the console's own settings database.
// PostgreSQL URLs use the postgres driver, anything else is treated as a SQLite path.
func ConnectDatabase(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var err error
	if isPostgresURL(databaseURL) {
		DB, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	} else {
		DB, err = gorm.Open(sqlite.Open(databaseURL), gormConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := DB.AutoMigrate(&models.ConsoleSetting{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("database connection established", "driver", DB.Dialector.Name())
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing)
func SetDB(db *gorm.DB) {
	DB = db
}

func isPostgresURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}
