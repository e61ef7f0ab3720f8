package leader

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Business rule constants
const (
	DefaultCellDay = "Thursday"
	MaxNameLength  = 100
)

// Domain errors
var (
	ErrNameRequired = errors.New("name is required")
	ErrZoneRequired = errors.New("zone is required")
	ErrNameTooLong  = errors.New("name cannot exceed 100 characters")
)

// Leader holds state for a cell-group leader.
type Leader struct {
	ID             int64
	Name           string
	Zone           string
	CellDay        string
	ContactNumber  string
	Email          string
	Address        string
	ProfilePicture string // stored filename, empty when none
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// New returns a Leader with the documented defaults applied.
// POST: IsActive is true, CellDay is Thursday when cellDay is empty
func New(name, zone, cellDay string) Leader {
	l := Leader{
		Name:     strings.TrimSpace(name),
		Zone:     strings.TrimSpace(zone),
		CellDay:  cellDay,
		IsActive: true,
	}
	if l.CellDay == "" {
		l.CellDay = DefaultCellDay
	}
	return l
}

// Validate checks the presence rules for a Leader.
// PRE: Leader struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name and Zone must not be blank
func (l *Leader) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(l.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(l.Zone) == "" {
		return ErrZoneRequired
	}
	return nil
}

// Initials returns the upper-cased first letters of the first two words of the name.
// INVARIANT: Name is not mutated
func (l *Leader) Initials() string {
	return Initials(l.Name)
}

// HasProfilePicture reports whether a picture filename is stored.
func (l *Leader) HasProfilePicture() bool {
	return l.ProfilePicture != ""
}

// Touch refreshes UpdatedAt.
// POST: UpdatedAt equals now truncated to microseconds
func (l *Leader) Touch(now time.Time) {
	l.UpdatedAt = now.UTC().Truncate(time.Microsecond)
}

// Initials computes avatar initials for a display name.
func Initials(name string) string {
	words := strings.Fields(name)
	if len(words) > 2 {
		words = words[:2]
	}
	var b strings.Builder
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteString(strings.ToUpper(string(r)))
	}
	return b.String()
}

// Directory is the static zone and meeting-day configuration, loaded once at startup.
type Directory struct {
	zones    []string
	cellDays []string
}

// DefaultZones are the zones configured when none are supplied.
var DefaultZones = []string{"Chestnut", "KB South", "KB North"}

// DefaultCellDays are the meeting days configured when none are supplied.
var DefaultCellDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// NewDirectory copies the configured lists.
// POST: Empty inputs fall back to DefaultZones / DefaultCellDays
func NewDirectory(zones, cellDays []string) Directory {
	if len(zones) == 0 {
		zones = DefaultZones
	}
	if len(cellDays) == 0 {
		cellDays = DefaultCellDays
	}
	return Directory{
		zones:    append([]string(nil), zones...),
		cellDays: append([]string(nil), cellDays...),
	}
}

// Zones returns the configured zones in configuration order.
func (d Directory) Zones() []string {
	return append([]string(nil), d.zones...)
}

// SortedZones returns the distinct configured zones in ascending order.
func (d Directory) SortedZones() []string {
	seen := make(map[string]bool, len(d.zones))
	out := make([]string, 0, len(d.zones))
	for _, z := range d.zones {
		if seen[z] {
			continue
		}
		seen[z] = true
		out = append(out, z)
	}
	sort.Strings(out)
	return out
}

// CellDays returns the configured meeting days.
func (d Directory) CellDays() []string {
	return append([]string(nil), d.cellDays...)
}
