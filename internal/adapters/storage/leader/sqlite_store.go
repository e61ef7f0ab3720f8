package leader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"celltracker/internal/adapters/storage"
	domain "celltracker/internal/domain/leader"
	"celltracker/internal/domain/servicerecord"
)

const leaderColumns = "id, name, zone, cell_day, contact_number, email, address, profile_picture, is_active, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new leader Store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanLeader reads one row selected with the leader column list.
func ScanLeader(row rowScanner) (domain.Leader, error) {
	var l domain.Leader
	var active int
	var createdAt, updatedAt string
	if err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Zone,
		&l.CellDay,
		&l.ContactNumber,
		&l.Email,
		&l.Address,
		&l.ProfilePicture,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Leader{}, err
	}
	l.IsActive = active != 0
	var err error
	if l.CreatedAt, err = servicerecord.ParseTimestamp(createdAt); err != nil {
		return domain.Leader{}, fmt.Errorf("leader %d created_at: %w", l.ID, err)
	}
	if l.UpdatedAt, err = servicerecord.ParseTimestamp(updatedAt); err != nil {
		return domain.Leader{}, fmt.Errorf("leader %d updated_at: %w", l.ID, err)
	}
	return l, nil
}

// GetByID retrieves a Leader by its ID.
// PRE: id > 0
// POST: Returns the entity or an error wrapping sql.ErrNoRows if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (domain.Leader, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+leaderColumns+" FROM leader WHERE id = ?", id)
	entity, err := ScanLeader(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Leader{}, fmt.Errorf("leader not found: %w", err)
	}
	return entity, err
}

// Create inserts a new Leader and returns its generated ID.
// PRE: entity has been validated, CreatedAt and UpdatedAt are set
// POST: Row persisted; entity.ID is ignored
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Leader) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO leader
		(name, zone, cell_day, contact_number, email, address, profile_picture, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.Name,
		entity.Zone,
		entity.CellDay,
		entity.ContactNumber,
		entity.Email,
		entity.Address,
		entity.ProfilePicture,
		boolToInt(entity.IsActive),
		servicerecord.FormatTimestamp(entity.CreatedAt),
		servicerecord.FormatTimestamp(entity.UpdatedAt),
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

// Update replaces the mutable fields of an existing Leader.
// PRE: entity.ID refers to an existing row, entity has been validated
// POST: Row updated, or an error wrapping sql.ErrNoRows when the row is missing
// INVARIANT: profile_picture and created_at are untouched
func (s *SQLiteStore) Update(ctx context.Context, entity domain.Leader) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leader SET
		name = ?, zone = ?, cell_day = ?, contact_number = ?, email = ?, address = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		entity.Name,
		entity.Zone,
		entity.CellDay,
		entity.ContactNumber,
		entity.Email,
		entity.Address,
		boolToInt(entity.IsActive),
		servicerecord.FormatTimestamp(entity.UpdatedAt),
		entity.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetProfilePicture stores (or clears, with an empty filename) the picture reference.
// PRE: id refers to an existing row
// POST: profile_picture and updated_at changed
func (s *SQLiteStore) SetProfilePicture(ctx context.Context, id int64, filename string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE leader SET profile_picture = ?, updated_at = ? WHERE id = ?",
		filename, servicerecord.FormatTimestamp(updatedAt), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a Leader by ID.
// PRE: id > 0
// POST: Row removed; fails with a foreign key error while service records reference it
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM leader WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// List retrieves leaders ordered by name.
// PRE: filter fields are optional
// POST: Returns leaders matching the zone and active filters
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Leader, error) {
	var where []string
	var args []any
	if filter.Zone != "" {
		where = append(where, "zone = ?")
		args = append(args, filter.Zone)
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	query := "SELECT " + leaderColumns + " FROM leader"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"
	return s.query(ctx, query, args...)
}

// ListAll retrieves every leader in id order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]domain.Leader, error) {
	return s.query(ctx, "SELECT "+leaderColumns+" FROM leader ORDER BY id")
}

// Search finds active leaders whose name or zone contains query, case-insensitively.
// PRE: limit > 0
// POST: Returns at most limit leaders in id order; an empty query matches every active leader
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]domain.Leader, error) {
	q := "SELECT " + leaderColumns + " FROM leader WHERE is_active = 1"
	var args []any
	if query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		q += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(zone) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	q += " ORDER BY id LIMIT ?"
	args = append(args, limit)
	return s.query(ctx, q, args...)
}

// CountActive returns the number of active leaders.
func (s *SQLiteStore) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leader WHERE is_active = 1").Scan(&n)
	return n, err
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Leader, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Leader
	for rows.Next() {
		entity, err := ScanLeader(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("leader not found: %w", sql.ErrNoRows)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
