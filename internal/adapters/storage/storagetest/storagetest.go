// Package storagetest opens migrated sqlite databases for tests.
package storagetest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"celltracker/internal/adapters/storage"
)

// Open returns a migrated database in a per-test temp dir, closed on cleanup.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "celltrack.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
