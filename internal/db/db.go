package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-Links/internal/config"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Open connects to DATABASE_URL. postgres:// URLs use the pgx backed driver and
// keep every table inside cfg.DBSchema; sqlite:// URLs are for local runs and tests.
func Open(cfg config.Config) (*gorm.DB, error) {
	var (
		dialector gorm.Dialector
		naming    schema.NamingStrategy
	)
	switch {
	case strings.HasPrefix(cfg.DatabaseURL, "postgres"):
		dialector = postgres.Open(cfg.DatabaseURL)
		if cfg.DBSchema != "" {
			naming.TablePrefix = cfg.DBSchema + "."
		}
	case strings.HasPrefix(cfg.DatabaseURL, "sqlite"):
		dialector = sqlite.Open(strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseURL)
	}

	// Surface slow queries in the service logs.
	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             100 * time.Millisecond,
			LogLevel:                  logLevel(cfg.DBLogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         lg,
		NamingStrategy: naming,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if gdb.Dialector.Name() == "sqlite" {
		// In-memory databases vanish with their last connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return gdb, nil
}

func logLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
