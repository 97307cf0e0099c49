package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sentra-batch-backend/config"
	"sentra-batch-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	log.Println("Database initialization complete.")
	return db, nil
}

// Migrate applies the schema for every model. Split out so tests can run
// it against an in-memory SQLite database.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Venue{},
		&model.Item{},
		&model.BatchTier{},
		&model.Batch{},
		&model.Reservation{},
		&model.PushSubscription{},
	)
	if err != nil {
		return err
	}
	// A redeem code is unique among the venue's non-expired reservations;
	// an expired holder releases its code for reuse. Partial indexes are
	// supported by both PostgreSQL and SQLite.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_live_code
		ON reservations (venue_id, redeem_code) WHERE status <> 'expired'`).Error
}
