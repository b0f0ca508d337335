package db

import (
	"fmt"  // Error wrapping
	"time" // Slow query threshold

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger interface

	"store_rating/internal/config" // Application configuration
)

// GormConfig returns the gorm settings shared by the server, the migrator and tests
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true, // Surface duplicate keys as gorm.ErrDuplicatedKey
		DisableForeignKeyConstraintWhenMigrating: true, // References are non-owning, cascades run in code
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Log queries slower than this
			LogLevel:                  logger.Warn,            // Only warnings and errors
			IgnoreRecordNotFoundError: true,                   // Not found is a normal outcome
		}),
	}
}

// Open connects to MySQL and configures the connection pool
func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), GormConfig()) // Open a connection to the database
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB() // Underlying pool
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
