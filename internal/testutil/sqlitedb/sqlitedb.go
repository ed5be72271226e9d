// Package sqlitedb opens migrated in-memory databases for tests.
package sqlitedb

import (
	"testing"

	"credlink/internal/infrastructure/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh migrated :memory: database pinned to a single
// connection, so every query and transaction sees the same schema.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenGormWithDialector(sqlite.Open(":memory:"), db.WithLogLevel("silent"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
