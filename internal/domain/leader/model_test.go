package leader

import (
	"reflect"
	"testing"
	"time"
)

// TestInitials verifies initials use at most the first two words.
func TestInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Leader 1", "L1"},
		{"john paul smith", "JP"},
		{"  thandi   mokoena ", "TM"},
		{"Zola", "Z"},
		{"", ""},
		{"élise dubois", "ÉD"},
	}
	for _, tt := range tests {
		if got := Initials(tt.name); got != tt.want {
			t.Errorf("Initials(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// TestNew_AppliesDefaults verifies the default meeting day and active flag.
func TestNew_AppliesDefaults(t *testing.T) {
	l := New(" Leader 1 ", "Chestnut", "")
	if l.Name != "Leader 1" {
		t.Errorf("Name = %q, want trimmed", l.Name)
	}
	if l.CellDay != DefaultCellDay {
		t.Errorf("CellDay = %q, want %q", l.CellDay, DefaultCellDay)
	}
	if !l.IsActive {
		t.Error("IsActive = false, want true")
	}
}

// TestValidate verifies presence rules.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		leader  Leader
		wantErr error
	}{
		{"valid", Leader{Name: "A", Zone: "Chestnut"}, nil},
		{"blank name", Leader{Name: "  ", Zone: "Chestnut"}, ErrNameRequired},
		{"missing zone", Leader{Name: "A"}, ErrZoneRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.leader.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestTouch_TruncatesToMicroseconds verifies stored and in-memory timestamps agree.
func TestTouch_TruncatesToMicroseconds(t *testing.T) {
	var l Leader
	now := time.Date(2024, 1, 4, 10, 0, 0, 123456789, time.FixedZone("SAST", 2*3600))
	l.Touch(now)
	if l.UpdatedAt.Nanosecond() != 123456000 {
		t.Errorf("UpdatedAt ns = %d, want 123456000", l.UpdatedAt.Nanosecond())
	}
	if l.UpdatedAt.Location() != time.UTC {
		t.Errorf("UpdatedAt location = %v, want UTC", l.UpdatedAt.Location())
	}
}

// TestDirectory_SortedZones verifies distinct, sorted zones and defaults.
func TestDirectory_SortedZones(t *testing.T) {
	d := NewDirectory([]string{"KB South", "Chestnut", "KB South", "KB North"}, nil)
	want := []string{"Chestnut", "KB North", "KB South"}
	if got := d.SortedZones(); !reflect.DeepEqual(got, want) {
		t.Errorf("SortedZones() = %v, want %v", got, want)
	}
	if got := d.CellDays(); !reflect.DeepEqual(got, DefaultCellDays) {
		t.Errorf("CellDays() = %v, want defaults", got)
	}

	empty := NewDirectory(nil, nil)
	if got := empty.Zones(); !reflect.DeepEqual(got, DefaultZones) {
		t.Errorf("Zones() = %v, want defaults", got)
	}
}
