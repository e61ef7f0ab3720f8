package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/backup"
	"celltracker/internal/metrics"
)

// BackupStoreForRestore defines the store interface needed by RestoreBackup.
type BackupStoreForRestore interface {
	ReplaceAll(ctx context.Context, data backup.Dataset) error
}

// RestoreBackupInput carries the uploaded document.
type RestoreBackupInput struct {
	Filename string
	Data     []byte
}

// RestoreBackupResult summarises the restored dataset.
type RestoreBackupResult struct {
	Leaders int
	Records int
}

// RestoreBackupDeps holds dependencies for RestoreBackup.
type RestoreBackupDeps struct {
	BackupStore BackupStoreForRestore
	Now         func() time.Time
}

// ExecuteRestoreBackup replaces all leaders and records with the uploaded backup.
// PRE: none
// POST: On success the store holds exactly the payload's rows with their original ids
// INVARIANT: Any validation or storage failure leaves existing data untouched
func ExecuteRestoreBackup(ctx context.Context, input RestoreBackupInput, deps RestoreBackupDeps) (res RestoreBackupResult, err error) {
	defer func() { metrics.RecordRestore(err) }()

	data, err := backup.Decode(input.Filename, input.Data, clock(deps.Now))
	if err != nil {
		slog.Info("backup_event", "event", "restore_rejected", "file", input.Filename, "reason", err.Error())
		return RestoreBackupResult{}, err
	}

	if err := deps.BackupStore.ReplaceAll(ctx, data); err != nil {
		return RestoreBackupResult{}, apperror.Storage("failed to restore data", err)
	}

	res = RestoreBackupResult{Leaders: len(data.Leaders), Records: len(data.Records)}
	slog.Info("backup_event", "event", "restore_completed", "leaders", res.Leaders, "records", res.Records)
	return res, nil
}
