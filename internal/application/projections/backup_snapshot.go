package projections

import (
	"context"
	"time"

	domainBackup "celltracker/internal/domain/backup"
)

// SnapshotLoader loads the full dataset.
type SnapshotLoader interface {
	LoadAll(ctx context.Context) (domainBackup.Dataset, error)
}

// BackupSnapshotDeps holds dependencies for QueryBackupSnapshot.
type BackupSnapshotDeps struct {
	BackupStore SnapshotLoader
	Now         func() time.Time
}

// QueryBackupSnapshot serialises every leader and record.
// PRE: none
// POST: Returns the indented JSON document, ids and timestamps included
func QueryBackupSnapshot(ctx context.Context, deps BackupSnapshotDeps) ([]byte, error) {
	data, err := deps.BackupStore.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	return domainBackup.Encode(domainBackup.Build(data.Leaders, data.Records, now))
}
