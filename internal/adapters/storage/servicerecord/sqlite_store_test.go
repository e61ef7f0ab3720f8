package servicerecord

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	leaderstore "celltracker/internal/adapters/storage/leader"
	"celltracker/internal/adapters/storage/storagetest"
	"celltracker/internal/domain/leader"
	domain "celltracker/internal/domain/servicerecord"
)

var base = time.Date(2024, 1, 4, 18, 0, 0, 0, time.UTC)

type fixture struct {
	db      *sql.DB
	leaders *leaderstore.SQLiteStore
	records *SQLiteStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := storagetest.Open(t)
	return fixture{db: db, leaders: leaderstore.NewSQLiteStore(db), records: NewSQLiteStore(db)}
}

func (f fixture) leader(t *testing.T, name, zone string) int64 {
	t.Helper()
	l := leader.New(name, zone, "")
	l.CreatedAt, l.UpdatedAt = base, base
	id, err := f.leaders.Create(context.Background(), l)
	if err != nil {
		t.Fatalf("create leader: %v", err)
	}
	return id
}

func (f fixture) record(t *testing.T, leaderID int64, typ, date string, tally domain.Tally, submitted time.Time) int64 {
	t.Helper()
	r := domain.New(leaderID, typ, date, tally, "")
	r.SubmittedAt = submitted
	id, err := f.records.Create(context.Background(), r)
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	return id
}

// TestCreate_RoundTrip verifies metrics, offering and timestamp survive storage.
func TestCreate_RoundTrip(t *testing.T) {
	f := newFixture(t)
	lid := f.leader(t, "Leader 1", "Chestnut")
	submitted := base.Add(123456 * time.Microsecond)
	f.record(t, lid, domain.TypeCell, "2024-01-04", domain.Tally{
		CellAttendance: 20, CellVisitors: 3, CellOffering: decimal.RequireFromString("150.50"), CellDecisions: 2,
	}, submitted)

	got, err := f.records.ListDetailed(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ListDetailed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	d := got[0]
	if d.LeaderName != "Leader 1" || d.LeaderZone != "Chestnut" {
		t.Errorf("leader join = %q/%q", d.LeaderName, d.LeaderZone)
	}
	if d.CellAttendance != 20 || d.CellVisitors != 3 || d.CellDecisions != 2 {
		t.Errorf("metrics = %+v", d.Record)
	}
	if !d.CellOffering.Equal(decimal.RequireFromString("150.5")) {
		t.Errorf("offering = %s, want 150.5", d.CellOffering)
	}
	if d.SundayAttendance != 0 || d.SundayVisitors != 0 {
		t.Errorf("inactive half not zero: %+v", d.Record)
	}
	if !d.SubmittedAt.Equal(submitted) {
		t.Errorf("SubmittedAt = %v, want %v", d.SubmittedAt, submitted)
	}
}

// TestListDetailed_Filters verifies date, zone and leader filtering and ordering.
func TestListDetailed_Filters(t *testing.T) {
	f := newFixture(t)
	a := f.leader(t, "Leader 1", "Chestnut")
	b := f.leader(t, "Leader 2", "KB South")
	f.record(t, a, domain.TypeCell, "2024-01-01", domain.Tally{CellAttendance: 10}, base)
	f.record(t, a, domain.TypeSunday, "2024-01-07", domain.Tally{SundayAttendance: 50}, base.Add(time.Minute))
	f.record(t, b, domain.TypeCell, "2024-01-04", domain.Tally{CellAttendance: 12}, base.Add(2*time.Minute))

	ctx := context.Background()
	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"all ascending", Filter{}, []string{"2024-01-01", "2024-01-04", "2024-01-07"}},
		{"descending", Filter{Order: OrderDateDesc}, []string{"2024-01-07", "2024-01-04", "2024-01-01"}},
		{"inclusive range", Filter{StartDate: "2024-01-04", EndDate: "2024-01-07"}, []string{"2024-01-04", "2024-01-07"}},
		{"zone", Filter{Zone: "KB South"}, []string{"2024-01-04"}},
		{"leader", Filter{LeaderID: a}, []string{"2024-01-01", "2024-01-07"}},
		{"newest submitted limited", Filter{Order: OrderSubmittedDesc, Limit: 2}, []string{"2024-01-04", "2024-01-07"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.records.ListDetailed(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListDetailed: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.wantIDs))
			}
			for i, d := range got {
				if d.ServiceDate != tt.wantIDs[i] {
					t.Errorf("row %d date = %s, want %s", i, d.ServiceDate, tt.wantIDs[i])
				}
			}
		})
	}
}

// TestAggregates verifies counts, activity and the offering sum.
func TestAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.leader(t, "Leader 1", "Chestnut")
	b := f.leader(t, "Leader 2", "KB South")
	f.leader(t, "Leader 3", "KB North")
	for i := 0; i < 10; i++ {
		f.record(t, a, domain.TypeCell, "2024-01-04", domain.Tally{CellOffering: decimal.RequireFromString("0.1")},
			base.Add(time.Duration(i)*time.Minute))
	}
	f.record(t, b, domain.TypeSunday, "2023-12-31", domain.Tally{SundayAttendance: 40}, base.Add(time.Hour))

	total, err := f.records.SumCellOffering(ctx)
	if err != nil {
		t.Fatalf("SumCellOffering: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(1)) {
		t.Errorf("offering sum = %s, want 1", total)
	}

	if n, _ := f.records.Count(ctx); n != 11 {
		t.Errorf("Count = %d, want 11", n)
	}
	if n, _ := f.records.CountSince(ctx, "2024-01-01"); n != 10 {
		t.Errorf("CountSince = %d, want 10", n)
	}
	if n, _ := f.records.CountForLeader(ctx, b); n != 1 {
		t.Errorf("CountForLeader = %d, want 1", n)
	}

	activity, err := f.records.ActivityByLeader(ctx)
	if err != nil {
		t.Fatalf("ActivityByLeader: %v", err)
	}
	if len(activity) != 2 {
		t.Fatalf("activity entries = %d, want 2", len(activity))
	}
	if activity[a].Count != 10 || !activity[a].LastSubmitted.Equal(base.Add(9*time.Minute)) {
		t.Errorf("activity[a] = %+v", activity[a])
	}
}

// TestCreate_UnknownLeaderFails verifies the foreign key blocks orphans.
func TestCreate_UnknownLeaderFails(t *testing.T) {
	f := newFixture(t)
	r := domain.New(77, domain.TypeCell, "2024-01-04", domain.Tally{}, "")
	r.SubmittedAt = base
	if _, err := f.records.Create(context.Background(), r); err == nil {
		t.Fatal("expected foreign key failure, got nil")
	}
}
