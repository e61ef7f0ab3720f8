package storage

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"celltracker/internal/metrics"
)

// TestTimedDB_RecordsHistogram verifies every call is observed.
func TestTimedDB_RecordsHistogram(t *testing.T) {
	db := openTestDB(t)
	tdb := NewTimedDB(db, time.Hour)
	ctx := context.Background()

	before := testutil.CollectAndCount(metrics.DBQueryDuration)
	if _, err := tdb.ExecContext(ctx, `INSERT INTO leader (name, zone, created_at, updated_at) VALUES ('A', 'Z', 'x', 'x')`); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	var n int
	if err := tdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM leader").Scan(&n); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if after := testutil.CollectAndCount(metrics.DBQueryDuration); after < before {
		t.Errorf("histogram series shrank: %d -> %d", before, after)
	}
	if testutil.CollectAndCount(metrics.DBQueryDuration) == 0 {
		t.Error("no query histogram series recorded")
	}
}

// TestTimedDB_SlowThreshold verifies calls above the threshold are counted as slow.
func TestTimedDB_SlowThreshold(t *testing.T) {
	db := openTestDB(t)
	tdb := NewTimedDB(db, time.Nanosecond)

	before := testutil.ToFloat64(metrics.DBSlowQueries.WithLabelValues("QueryContext"))
	rows, err := tdb.QueryContext(context.Background(), "SELECT id FROM leader")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()
	after := testutil.ToFloat64(metrics.DBSlowQueries.WithLabelValues("QueryContext"))
	if after-before != 1 {
		t.Errorf("slow delta = %v, want 1", after-before)
	}
}

// TestTimedDB_BeginTx verifies transactions pass through.
func TestTimedDB_BeginTx(t *testing.T) {
	db := openTestDB(t)
	tdb := NewTimedDB(db, 0)
	if tdb.threshold != DefaultSlowQuery {
		t.Errorf("threshold = %v, want default", tdb.threshold)
	}
	tx, err := tdb.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback: %v", err)
	}
	if tdb.RawDB() != db {
		t.Error("RawDB did not return the wrapped handle")
	}
}
