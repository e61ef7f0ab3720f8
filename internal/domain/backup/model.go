package backup

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/leader"
	"celltracker/internal/domain/servicerecord"
)

// Filename is the attachment name of a downloaded backup.
const Filename = "church_backup.json"

// Snapshot is the full-fidelity backup document.
type Snapshot struct {
	Timestamp      string        `json:"timestamp"`
	Leaders        []LeaderEntry `json:"leaders" validate:"required,dive"`
	ServiceRecords []RecordEntry `json:"service_records" validate:"required,dive"`
}

// LeaderEntry is one leader row in a Snapshot.
type LeaderEntry struct {
	ID             *int64  `json:"id" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Zone           string  `json:"zone" validate:"required"`
	CellDay        string  `json:"cell_day"`
	ContactNumber  string  `json:"contact_number"`
	Email          string  `json:"email"`
	Address        string  `json:"address"`
	ProfilePicture *string `json:"profile_picture"`
	IsActive       *bool   `json:"is_active"`
	CreatedAt      *string `json:"created_at"`
	UpdatedAt      *string `json:"updated_at"`
}

// RecordEntry is one service record row in a Snapshot.
type RecordEntry struct {
	ID               *int64  `json:"id" validate:"required"`
	LeaderID         *int64  `json:"leader_id" validate:"required"`
	ServiceType      string  `json:"service_type" validate:"required,oneof=sunday cell"`
	ServiceDate      string  `json:"service_date" validate:"required"`
	SundayAttendance int64   `json:"sunday_attendance"`
	SundayVisitors   int64   `json:"sunday_visitors"`
	CellAttendance   int64   `json:"cell_attendance"`
	CellVisitors     int64   `json:"cell_visitors"`
	CellOffering     float64 `json:"cell_offering"`
	CellDecisions    int64   `json:"cell_decisions"`
	Notes            string  `json:"notes"`
	SubmittedAt      *string `json:"submitted_at"`
}

// Dataset is a validated snapshot converted to domain values, ready to replace the store.
type Dataset struct {
	Leaders []leader.Leader
	Records []servicerecord.Record
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Build assembles a Snapshot from the full store contents.
// POST: Every field, including ids and timestamps, is carried
func Build(leaders []leader.Leader, records []servicerecord.Record, now time.Time) Snapshot {
	s := Snapshot{
		Timestamp:      formatTime(now),
		Leaders:        make([]LeaderEntry, 0, len(leaders)),
		ServiceRecords: make([]RecordEntry, 0, len(records)),
	}
	for _, l := range leaders {
		id, active := l.ID, l.IsActive
		e := LeaderEntry{
			ID:            &id,
			Name:          l.Name,
			Zone:          l.Zone,
			CellDay:       l.CellDay,
			ContactNumber: l.ContactNumber,
			Email:         l.Email,
			Address:       l.Address,
			IsActive:      &active,
			CreatedAt:     timePtr(l.CreatedAt),
			UpdatedAt:     timePtr(l.UpdatedAt),
		}
		if l.ProfilePicture != "" {
			pic := l.ProfilePicture
			e.ProfilePicture = &pic
		}
		s.Leaders = append(s.Leaders, e)
	}
	for _, r := range records {
		id, leaderID := r.ID, r.LeaderID
		s.ServiceRecords = append(s.ServiceRecords, RecordEntry{
			ID:               &id,
			LeaderID:         &leaderID,
			ServiceType:      r.ServiceType,
			ServiceDate:      r.ServiceDate,
			SundayAttendance: r.SundayAttendance,
			SundayVisitors:   r.SundayVisitors,
			CellAttendance:   r.CellAttendance,
			CellVisitors:     r.CellVisitors,
			CellOffering:     r.CellOffering.InexactFloat64(),
			CellDecisions:    r.CellDecisions,
			Notes:            r.Notes,
			SubmittedAt:      timePtr(r.SubmittedAt),
		})
	}
	return s
}

// Encode renders a Snapshot as indented JSON.
func Encode(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode validates an uploaded backup and converts it to domain values.
// PRE: filename is the client-supplied upload name
// POST: Returns a Restore error for a non-.json filename, malformed JSON, a document that is not
// an object, a missing leaders or service_records array, a missing required field, an unknown service type, an unparseable date or timestamp, a duplicate id, or a
// record whose leader is absent from the payload
func Decode(filename string, data []byte, now time.Time) (Dataset, error) {
	if !strings.HasSuffix(filename, ".json") {
		return Dataset{}, apperror.Restore("Invalid file format")
	}
	var s *Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Dataset{}, apperror.Restore("Invalid backup file: %v", err)
	}
	if s == nil {
		return Dataset{}, apperror.Restore("Invalid backup file: not a backup document")
	}
	if err := validate.Struct(s); err != nil {
		return Dataset{}, apperror.Restore("Invalid backup file: %s", describe(err))
	}

	now = now.UTC().Truncate(time.Microsecond)
	ds := Dataset{
		Leaders: make([]leader.Leader, 0, len(s.Leaders)),
		Records: make([]servicerecord.Record, 0, len(s.ServiceRecords)),
	}
	leaderIDs := make(map[int64]bool, len(s.Leaders))
	for i, e := range s.Leaders {
		if leaderIDs[*e.ID] {
			return Dataset{}, apperror.Restore("Invalid backup file: duplicate leader id %d", *e.ID)
		}
		leaderIDs[*e.ID] = true

		l := leader.Leader{
			ID:            *e.ID,
			Name:          e.Name,
			Zone:          e.Zone,
			CellDay:       e.CellDay,
			ContactNumber: e.ContactNumber,
			Email:         e.Email,
			Address:       e.Address,
			IsActive:      e.IsActive == nil || *e.IsActive,
		}
		if l.CellDay == "" {
			l.CellDay = leader.DefaultCellDay
		}
		if e.ProfilePicture != nil {
			l.ProfilePicture = *e.ProfilePicture
		}
		var err error
		if l.CreatedAt, err = ParseTime(e.CreatedAt, now); err != nil {
			return Dataset{}, apperror.Restore("Invalid backup file: leaders[%d].created_at: %v", i, err)
		}
		if l.UpdatedAt, err = ParseTime(e.UpdatedAt, now); err != nil {
			return Dataset{}, apperror.Restore("Invalid backup file: leaders[%d].updated_at: %v", i, err)
		}
		ds.Leaders = append(ds.Leaders, l)
	}

	recordIDs := make(map[int64]bool, len(s.ServiceRecords))
	for i, e := range s.ServiceRecords {
		if recordIDs[*e.ID] {
			return Dataset{}, apperror.Restore("Invalid backup file: duplicate service record id %d", *e.ID)
		}
		recordIDs[*e.ID] = true
		if !leaderIDs[*e.LeaderID] {
			return Dataset{}, apperror.Restore("Invalid backup file: service_records[%d] references unknown leader %d", i, *e.LeaderID)
		}
		if _, err := servicerecord.ParseDate(e.ServiceDate); err != nil {
			return Dataset{}, apperror.Restore("Invalid backup file: service_records[%d].service_date: %v", i, err)
		}
		submitted, err := ParseTime(e.SubmittedAt, now)
		if err != nil {
			return Dataset{}, apperror.Restore("Invalid backup file: service_records[%d].submitted_at: %v", i, err)
		}
		ds.Records = append(ds.Records, servicerecord.Record{
			ID:               *e.ID,
			LeaderID:         *e.LeaderID,
			ServiceType:      e.ServiceType,
			ServiceDate:      e.ServiceDate,
			SundayAttendance: e.SundayAttendance,
			SundayVisitors:   e.SundayVisitors,
			CellAttendance:   e.CellAttendance,
			CellVisitors:     e.CellVisitors,
			CellOffering:     decimal.NewFromFloat(e.CellOffering),
			CellDecisions:    e.CellDecisions,
			Notes:            e.Notes,
			SubmittedAt:      submitted,
		})
	}
	return ds, nil
}

// accepted timestamp layouts, tried in order
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime reads a backup timestamp. Naive values are read as UTC; a missing value yields now.
func ParseTime(v *string, now time.Time) (time.Time, error) {
	if v == nil || *v == "" {
		return now, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, *v); err == nil {
			return t.UTC().Truncate(time.Microsecond), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", *v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func timePtr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := formatTime(t)
	return &s
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Snapshot.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
