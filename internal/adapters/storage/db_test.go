package storage

import (
	"database/sql"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

// openTestDB creates a migrated sqlite database in a temp dir.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TestMigrate_CreatesTables verifies the schema and migration bookkeeping tables exist.
func TestMigrate_CreatesTables(t *testing.T) {
	db := openTestDB(t)
	want := []string{"leader", "schema_migrations", "service_record"}
	if got := getTableNames(t, db); !reflect.DeepEqual(got, want) {
		t.Errorf("tables = %v, want %v", got, want)
	}
}

// TestMigrate_Idempotent verifies a second run is a no-op.
func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	mg, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("NewMigrator: %v", err)
	}
	version, dirty, err := mg.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("version = %d dirty = %v, want 1 clean", version, dirty)
	}
}

// TestOpen_EnforcesForeignKeys verifies orphan records are rejected.
func TestOpen_EnforcesForeignKeys(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO service_record (leader_id, service_type, service_date, submitted_at)
		VALUES (99, 'cell', '2024-01-04', '2024-01-04T10:00:00.000000Z')`)
	if err == nil {
		t.Fatal("expected foreign key violation, got nil")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "foreign key") {
		t.Errorf("err = %v, want foreign key failure", err)
	}
}

// TestMigrate_RejectsUnknownServiceType verifies the CHECK constraint.
func TestMigrate_RejectsUnknownServiceType(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Exec(`INSERT INTO leader (name, zone, created_at, updated_at) VALUES ('A', 'Z', 'x', 'x')`); err != nil {
		t.Fatalf("insert leader: %v", err)
	}
	_, err := db.Exec(`INSERT INTO service_record (leader_id, service_type, service_date, submitted_at)
		VALUES (1, 'midweek', '2024-01-04', 'x')`)
	if err == nil {
		t.Fatal("expected CHECK constraint failure, got nil")
	}
}

// TestDSN_AppendsPragmas verifies existing query strings are extended.
func TestDSN_AppendsPragmas(t *testing.T) {
	if got := DSN("a.db"); !strings.HasPrefix(got, "a.db?_pragma=foreign_keys(1)") {
		t.Errorf("DSN = %q", got)
	}
	if got := DSN("a.db?mode=ro"); !strings.HasPrefix(got, "a.db?mode=ro&_pragma=") {
		t.Errorf("DSN = %q", got)
	}
}
