package backup

import (
	"context"
	"fmt"

	"celltracker/internal/adapters/storage"
	leaderstore "celltracker/internal/adapters/storage/leader"
	recordstore "celltracker/internal/adapters/storage/servicerecord"
	domain "celltracker/internal/domain/backup"
	"celltracker/internal/domain/leader"
	"celltracker/internal/domain/servicerecord"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      storage.SQLDB
	leaders *leaderstore.SQLiteStore
	records *recordstore.SQLiteStore
}

// NewSQLiteStore creates a new backup Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{
		db:      db,
		leaders: leaderstore.NewSQLiteStore(db),
		records: recordstore.NewSQLiteStore(db),
	}
}

// LoadAll reads every leader and record in id order.
// POST: Returned slices are non-nil
func (s *SQLiteStore) LoadAll(ctx context.Context) (domain.Dataset, error) {
	leaders, err := s.leaders.ListAll(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("load leaders: %w", err)
	}
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("load service records: %w", err)
	}
	if leaders == nil {
		leaders = []leader.Leader{}
	}
	if records == nil {
		records = []servicerecord.Record{}
	}
	return domain.Dataset{Leaders: leaders, Records: records}, nil
}

// ReplaceAll deletes everything and inserts data with its original ids and timestamps.
// PRE: data has been validated by backup.Decode (or built with explicit ids)
// POST: Either the store holds exactly data, or nothing changed
func (s *SQLiteStore) ReplaceAll(ctx context.Context, data domain.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM service_record"); err != nil {
		return fmt.Errorf("clear service records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM leader"); err != nil {
		return fmt.Errorf("clear leaders: %w", err)
	}

	for _, l := range data.Leaders {
		active := 0
		if l.IsActive {
			active = 1
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO leader
			(id, name, zone, cell_day, contact_number, email, address, profile_picture, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Name, l.Zone, l.CellDay, l.ContactNumber, l.Email, l.Address, l.ProfilePicture, active,
			servicerecord.FormatTimestamp(l.CreatedAt),
			servicerecord.FormatTimestamp(l.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert leader %d: %w", l.ID, err)
		}
	}

	for _, r := range data.Records {
		_, err := tx.ExecContext(ctx, `INSERT INTO service_record
			(id, leader_id, service_type, service_date, sunday_attendance, sunday_visitors,
			 cell_attendance, cell_visitors, cell_offering, cell_decisions, notes, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.LeaderID, r.ServiceType, r.ServiceDate, r.SundayAttendance, r.SundayVisitors,
			r.CellAttendance, r.CellVisitors, r.CellOffering.InexactFloat64(), r.CellDecisions, r.Notes,
			servicerecord.FormatTimestamp(r.SubmittedAt),
		)
		if err != nil {
			return fmt.Errorf("insert service record %d: %w", r.ID, err)
		}
	}

	return tx.Commit()
}
