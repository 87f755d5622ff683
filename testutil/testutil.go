// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"tow-dispatch-api/config"

	"gorm.io/gorm"
)

// OpenDB returns a migrated SQLite database living in the test's temp dir.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(config.Config{
		DBDriver: "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
