package servicerecord

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Service types
const (
	TypeSunday = "sunday"
	TypeCell   = "cell"
)

// Wire layouts shared by storage, HTTP and export.
const (
	DateLayout      = "2006-01-02"
	MonthLayout     = "2006-01"
	TimestampLayout = "2006-01-02T15:04:05.000000Z"
	DisplayLayout   = "2006-01-02 15:04"
)

// Domain errors
var (
	ErrLeaderRequired      = errors.New("leader_id is required")
	ErrServiceTypeRequired = errors.New("service_type is required")
	ErrServiceDateRequired = errors.New("service_date is required")
	ErrInvalidServiceType  = errors.New("service_type must be 'sunday' or 'cell'")
)

// Record is one submitted tally for a Sunday service or a cell meeting.
type Record struct {
	ID               int64
	LeaderID         int64
	ServiceType      string
	ServiceDate      string // YYYY-MM-DD format
	SundayAttendance int64
	SundayVisitors   int64
	CellAttendance   int64
	CellVisitors     int64
	CellOffering     decimal.Decimal
	CellDecisions    int64
	Notes            string
	SubmittedAt      time.Time
}

// Detailed is a Record joined with its leader's display fields.
type Detailed struct {
	Record
	LeaderName string
	LeaderZone string
}

// Tally carries the raw metric fields of a submission before the type is applied.
type Tally struct {
	SundayAttendance int64
	SundayVisitors   int64
	CellAttendance   int64
	CellVisitors     int64
	CellOffering     decimal.Decimal
	CellDecisions    int64
}

// New builds a record of the given type, copying only the metrics relevant to it.
// PRE: serviceType is validated by the caller or by Validate
// POST: The inactive half of the record is zero
func New(leaderID int64, serviceType, serviceDate string, t Tally, notes string) Record {
	r := Record{
		LeaderID:    leaderID,
		ServiceType: serviceType,
		ServiceDate: serviceDate,
		Notes:       notes,
	}
	switch serviceType {
	case TypeSunday:
		r.SundayAttendance = t.SundayAttendance
		r.SundayVisitors = t.SundayVisitors
	case TypeCell:
		r.CellAttendance = t.CellAttendance
		r.CellVisitors = t.CellVisitors
		r.CellOffering = t.CellOffering
		r.CellDecisions = t.CellDecisions
	}
	return r
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: LeaderID set, ServiceType is sunday or cell, ServiceDate is YYYY-MM-DD
func (r *Record) Validate() error {
	if r.LeaderID <= 0 {
		return ErrLeaderRequired
	}
	if r.ServiceType == "" {
		return ErrServiceTypeRequired
	}
	if !ValidType(r.ServiceType) {
		return ErrInvalidServiceType
	}
	if r.ServiceDate == "" {
		return ErrServiceDateRequired
	}
	if _, err := ParseDate(r.ServiceDate); err != nil {
		return err
	}
	return nil
}

// ValidType reports whether t is a known service type.
func ValidType(t string) bool {
	return t == TypeSunday || t == TypeCell
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Metrics is the effective attendance, visitors, offering and decisions of one or more records.
type Metrics struct {
	Attendance int64
	Visitors   int64
	Offering   decimal.Decimal
	Decisions  int64
}

// Effective projects the record onto its active half.
// POST: Sunday records report zero offering and zero decisions
func (r *Record) Effective() Metrics {
	if r.ServiceType == TypeSunday {
		return Metrics{
			Attendance: r.SundayAttendance,
			Visitors:   r.SundayVisitors,
		}
	}
	return Metrics{
		Attendance: r.CellAttendance,
		Visitors:   r.CellVisitors,
		Offering:   r.CellOffering,
		Decisions:  r.CellDecisions,
	}
}

// Add accumulates other into m.
func (m *Metrics) Add(other Metrics) {
	m.Attendance += other.Attendance
	m.Visitors += other.Visitors
	m.Offering = m.Offering.Add(other.Offering)
	m.Decisions += other.Decisions
}

// OfferingFloat renders the offering for JSON and CSV output.
func (m Metrics) OfferingFloat() float64 {
	return m.Offering.InexactFloat64()
}

// FormatTimestamp renders t in the fixed-width stored layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a stored timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}
