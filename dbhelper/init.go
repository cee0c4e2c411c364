package dbhelper

import (
	"fmt"
	"os"
	"time"

	"wardrobeapi/config"
	"wardrobeapi/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDatabaseEnv names the DSN used by integration tests. Tests that need
// Postgres skip when it is unset.
const TestDatabaseEnv = "WARDROBE_TEST_DATABASE"

func SetupDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	Migrate(db, &models.Clothing{})
	Migrate(db, &models.Outfit{})
	return db, nil
}

// SetupTestDB connects to the integration database, or returns nil when
// none is configured.
func SetupTestDB() *gorm.DB {
	dsn := os.Getenv(TestDatabaseEnv)
	if dsn == "" {
		return nil
	}
	db, err := SetupDB(&config.Config{Environment: config.EnvTesting, DatabaseURL: dsn})
	if err != nil {
		panic(err)
	}
	return db
}
