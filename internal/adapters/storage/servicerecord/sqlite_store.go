package servicerecord

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"celltracker/internal/adapters/storage"
	domain "celltracker/internal/domain/servicerecord"
)

// RecordColumns is the column list read by ScanRecord, qualified with the table alias r.
const RecordColumns = "r.id, r.leader_id, r.service_type, r.service_date, r.sunday_attendance, r.sunday_visitors, " +
	"r.cell_attendance, r.cell_visitors, r.cell_offering, r.cell_decisions, r.notes, r.submitted_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new service record Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanRecord reads the RecordColumns followed by any extra destinations.
func ScanRecord(row rowScanner, extra ...any) (domain.Record, error) {
	var r domain.Record
	var submittedAt string
	dest := []any{
		&r.ID,
		&r.LeaderID,
		&r.ServiceType,
		&r.ServiceDate,
		&r.SundayAttendance,
		&r.SundayVisitors,
		&r.CellAttendance,
		&r.CellVisitors,
		&r.CellOffering,
		&r.CellDecisions,
		&r.Notes,
		&submittedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Record{}, err
	}
	t, err := domain.ParseTimestamp(submittedAt)
	if err != nil {
		return domain.Record{}, fmt.Errorf("service record %d submitted_at: %w", r.ID, err)
	}
	r.SubmittedAt = t
	return r, nil
}

// Create inserts a new record and returns its generated ID.
// PRE: value has been validated, SubmittedAt is set, the leader exists
// POST: Row persisted with both metric halves written as given
func (s *SQLiteStore) Create(ctx context.Context, value domain.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO service_record
		(leader_id, service_type, service_date, sunday_attendance, sunday_visitors,
		 cell_attendance, cell_visitors, cell_offering, cell_decisions, notes, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		value.LeaderID,
		value.ServiceType,
		value.ServiceDate,
		value.SundayAttendance,
		value.SundayVisitors,
		value.CellAttendance,
		value.CellVisitors,
		value.CellOffering.InexactFloat64(),
		value.CellDecisions,
		value.Notes,
		domain.FormatTimestamp(value.SubmittedAt),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// ListDetailed returns records joined with their leader.
// PRE: filter dates, when set, are YYYY-MM-DD
// POST: Only records whose leader row exists are returned, in the requested order
func (s *SQLiteStore) ListDetailed(ctx context.Context, filter Filter) ([]domain.Detailed, error) {
	var where []string
	var args []any
	if filter.StartDate != "" {
		where = append(where, "r.service_date >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		where = append(where, "r.service_date <= ?")
		args = append(args, filter.EndDate)
	}
	if filter.Zone != "" {
		where = append(where, "l.zone = ?")
		args = append(args, filter.Zone)
	}
	if filter.LeaderID != 0 {
		where = append(where, "r.leader_id = ?")
		args = append(args, filter.LeaderID)
	}

	query := "SELECT " + RecordColumns + ", l.name, l.zone FROM service_record r JOIN leader l ON l.id = r.leader_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch filter.Order {
	case OrderDateDesc:
		query += " ORDER BY r.service_date DESC, r.id DESC"
	case OrderSubmittedDesc:
		query += " ORDER BY r.submitted_at DESC, r.id DESC"
	default:
		query += " ORDER BY r.service_date, r.id"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Detailed
	for rows.Next() {
		var d domain.Detailed
		rec, err := ScanRecord(rows, &d.LeaderName, &d.LeaderZone)
		if err != nil {
			return nil, err
		}
		d.Record = rec
		results = append(results, d)
	}
	return results, rows.Err()
}

// ListAll returns every record in id order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+RecordColumns+" FROM service_record r ORDER BY r.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		rec, err := ScanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// ActivityByLeader groups submissions by leader.
// POST: Leaders without records are absent from the map
func (s *SQLiteStore) ActivityByLeader(ctx context.Context) (map[int64]Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT leader_id, COUNT(*), MAX(submitted_at) FROM service_record GROUP BY leader_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]Activity)
	for rows.Next() {
		var leaderID int64
		var a Activity
		var last string
		if err := rows.Scan(&leaderID, &a.Count, &last); err != nil {
			return nil, err
		}
		if a.LastSubmitted, err = domain.ParseTimestamp(last); err != nil {
			return nil, fmt.Errorf("leader %d last submission: %w", leaderID, err)
		}
		out[leaderID] = a
	}
	return out, rows.Err()
}

// CountForLeader returns the number of records referencing leaderID.
func (s *SQLiteStore) CountForLeader(ctx context.Context, leaderID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM service_record WHERE leader_id = ?", leaderID).Scan(&n)
	return n, err
}

// Count returns the total number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM service_record").Scan(&n)
	return n, err
}

// CountSince returns the number of records with service_date on or after date.
// PRE: date is YYYY-MM-DD
func (s *SQLiteStore) CountSince(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM service_record WHERE service_date >= ?", date).Scan(&n)
	return n, err
}

// SumCellOffering totals every stored offering in decimal arithmetic.
// POST: Returns zero when there are no records
func (s *SQLiteStore) SumCellOffering(ctx context.Context) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT cell_offering FROM service_record WHERE cell_offering != 0")
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v decimal.Decimal
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, rows.Err()
}
