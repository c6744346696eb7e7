package db

import (
	"fmt"

	"github.com/EmpoweredVote/EV-Links/internal/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(schema)).Error
}

// Migrate creates the schema (postgres only) and auto-migrates every model.
func Migrate(d *gorm.DB, schema string) error {
	if d.Dialector.Name() == "postgres" && schema != "" {
		if err := EnsureSchema(d, schema); err != nil {
			return fmt.Errorf("ensure schema %s: %w", schema, err)
		}
	}
	if err := d.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
