package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	backupstore "celltracker/internal/adapters/storage/backup"
	"celltracker/internal/adapters/storage/storagetest"
	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/backup"
	"celltracker/internal/metrics"
)

const validBackup = `{
  "timestamp": "2024-03-15T18:00:00Z",
  "leaders": [
    {"id": 5, "name": "Leader 1", "zone": "Chestnut", "cell_day": "Monday", "is_active": true,
     "created_at": "2024-01-01T08:00:00.5Z", "updated_at": "2024-01-02T08:00:00"}
  ],
  "service_records": [
    {"id": 11, "leader_id": 5, "service_type": "cell", "service_date": "2024-03-12",
     "cell_attendance": 20, "cell_visitors": 3, "cell_offering": 150.5, "cell_decisions": 2,
     "submitted_at": "2024-03-12T19:30:00Z"}
  ]
}`

type failingReplace struct{ called bool }

// ReplaceAll always fails.
func (f *failingReplace) ReplaceAll(_ context.Context, _ backup.Dataset) error {
	f.called = true
	return errors.New("database is locked")
}

// TestExecuteRestoreBackup_ReplacesData verifies a restore over existing rows keeps ids.
func TestExecuteRestoreBackup_ReplacesData(t *testing.T) {
	store := backupstore.NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	if _, err := ExecuteSeedLeaders(ctx, SeedLeadersDeps{BackupStore: store, Now: testNow}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := ExecuteRestoreBackup(ctx, RestoreBackupInput{Filename: "church_backup.json", Data: []byte(validBackup)},
		RestoreBackupDeps{BackupStore: store, Now: testNow})
	if err != nil {
		t.Fatalf("ExecuteRestoreBackup: %v", err)
	}
	if res != (RestoreBackupResult{Leaders: 1, Records: 1}) {
		t.Errorf("result = %+v", res)
	}

	data, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Leaders) != 1 || data.Leaders[0].ID != 5 || data.Leaders[0].CellDay != "Monday" {
		t.Errorf("leaders = %+v", data.Leaders)
	}
	if len(data.Records) != 1 || data.Records[0].ID != 11 || data.Records[0].CellAttendance != 20 {
		t.Errorf("records = %+v", data.Records)
	}
}

// TestExecuteRestoreBackup_RejectsWithoutTouchingData verifies invalid uploads never reach the store.
func TestExecuteRestoreBackup_RejectsWithoutTouchingData(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		want     string
	}{
		{"wrong extension", "backup.txt", validBackup, "Invalid file format"},
		{"not json", "b.json", "{", "Invalid backup file"},
		{"orphan record", "b.json", strings.Replace(validBackup, `"leader_id": 5`, `"leader_id": 6`, 1), "unknown leader"},
		{"null document", "b.json", "null", "not a backup document"},
		{"empty object", "b.json", "{}", "leaders is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &failingReplace{}
			_, err := ExecuteRestoreBackup(context.Background(), RestoreBackupInput{Filename: tt.filename, Data: []byte(tt.data)},
				RestoreBackupDeps{BackupStore: store, Now: testNow})
			if !apperror.Is(err, apperror.KindRestore) || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want Restore containing %q", err, tt.want)
			}
			if store.called {
				t.Error("store called for an invalid payload")
			}
		})
	}
}

// TestExecuteRestoreBackup_StorageFailure verifies the storage kind and the failure metric.
func TestExecuteRestoreBackup_StorageFailure(t *testing.T) {
	before := testutil.ToFloat64(metrics.RestoresTotal.WithLabelValues("error"))
	_, err := ExecuteRestoreBackup(context.Background(), RestoreBackupInput{Filename: "b.json", Data: []byte(validBackup)},
		RestoreBackupDeps{BackupStore: &failingReplace{}, Now: testNow})
	if !apperror.Is(err, apperror.KindStorage) {
		t.Errorf("err = %v, want Storage", err)
	}
	if got := testutil.ToFloat64(metrics.RestoresTotal.WithLabelValues("error")); got != before+1 {
		t.Errorf("restore error counter = %v, want %v", got, before+1)
	}
}
