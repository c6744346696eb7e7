// Package dbtest opens throwaway in-memory databases for package tests.
package dbtest

import (
	"testing"

	"github.com/EmpoweredVote/EV-Links/internal/config"
	"github.com/EmpoweredVote/EV-Links/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New returns a migrated SQLite database private to t.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := config.Config{
		DatabaseURL: "sqlite://file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)",
		DBLogLevel:  "silent",
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Migrate(gdb, ""); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
