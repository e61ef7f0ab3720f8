package projections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	recordStore "celltracker/internal/adapters/storage/servicerecord"
	"celltracker/internal/domain/apperror"
	domainRecord "celltracker/internal/domain/servicerecord"
)

type mockRecordReader struct {
	records []domainRecord.Detailed
	filter  recordStore.Filter
	calls   int
	err     error
}

// ListDetailed records the filter and returns the seeded records.
// PRE: none
// POST: Returns the seeded records or the configured error
func (m *mockRecordReader) ListDetailed(_ context.Context, filter recordStore.Filter) ([]domainRecord.Detailed, error) {
	m.filter = filter
	m.calls++
	return m.records, m.err
}

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func detailed(id int64, leaderName, zone, serviceType, date string, t domainRecord.Tally) domainRecord.Detailed {
	r := domainRecord.New(1, serviceType, date, t, "")
	r.ID = id
	r.SubmittedAt = fixedNow
	return domainRecord.Detailed{Record: r, LeaderName: leaderName, LeaderZone: zone}
}

func sampleRecords() []domainRecord.Detailed {
	return []domainRecord.Detailed{
		detailed(1, "Leader 1", "Chestnut", domainRecord.TypeCell, "2024-03-12", domainRecord.Tally{
			CellAttendance: 20, CellVisitors: 3, CellOffering: decimal.RequireFromString("150.50"), CellDecisions: 2,
		}),
		detailed(2, "Leader 1", "Chestnut", domainRecord.TypeSunday, "2024-03-10", domainRecord.Tally{
			SundayAttendance: 50, SundayVisitors: 5,
		}),
		detailed(3, "Leader 2", "KB South", domainRecord.TypeCell, "2024-02-20", domainRecord.Tally{
			CellAttendance: 12, CellVisitors: 1, CellOffering: decimal.RequireFromString("0.10"), CellDecisions: 1,
		}),
		detailed(4, "Leader 2", "KB South", domainRecord.TypeCell, "2024-02-21", domainRecord.Tally{
			CellAttendance: 8, CellOffering: decimal.RequireFromString("0.20"),
		}),
	}
}

// TestResolveWindow verifies period tokens, explicit bounds and rejections.
func TestResolveWindow(t *testing.T) {
	tests := []struct {
		name, period, start, end string
		want                     Window
		wantErr                  bool
	}{
		{name: "week", period: "week", want: Window{"2024-03-08", "2024-03-15", domainRecord.DateLayout}},
		{name: "month", period: "month", want: Window{"2024-02-14", "2024-03-15", domainRecord.DateLayout}},
		{name: "year", period: "year", want: Window{"2023-03-16", "2024-03-15", domainRecord.MonthLayout}},
		{name: "unknown falls back to year", period: "decade", want: Window{"2023-03-16", "2024-03-15", domainRecord.MonthLayout}},
		{name: "explicit start", period: "week", start: "2024-01-01", want: Window{"2024-01-01", "2024-03-15", domainRecord.DateLayout}},
		{name: "explicit both", period: "year", start: "2024-01-01", end: "2024-01-31", want: Window{"2024-01-01", "2024-01-31", domainRecord.MonthLayout}},
		{name: "malformed start", period: "week", start: "01/01/2024", wantErr: true},
		{name: "malformed end", period: "week", end: "2024-13-01", wantErr: true},
		{name: "start after end", period: "week", start: "2024-03-20", end: "2024-03-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveWindow(tt.period, tt.start, tt.end, fixedNow)
			if tt.wantErr {
				if !apperror.Is(err, apperror.KindInvalidArgument) {
					t.Fatalf("err = %v, want InvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestQueryAnalyticsOverview_LeaderScenario verifies the single cell record figures and the Sunday projection.
func TestQueryAnalyticsOverview_LeaderScenario(t *testing.T) {
	store := &mockRecordReader{records: sampleRecords()[:2]}
	res, err := QueryAnalyticsOverview(context.Background(), AnalyticsQuery{Period: "week", Zone: "Chestnut"},
		AnalyticsDeps{RecordStore: store, Now: fixedClock})
	if err != nil {
		t.Fatalf("QueryAnalyticsOverview: %v", err)
	}

	if store.filter.StartDate != "2024-03-08" || store.filter.EndDate != "2024-03-15" || store.filter.Zone != "Chestnut" {
		t.Errorf("filter = %+v", store.filter)
	}
	if res.TotalAttendance != 70 || res.TotalVisitors != 8 {
		t.Errorf("attendance/visitors = %d/%d, want 70/8", res.TotalAttendance, res.TotalVisitors)
	}
	if res.TotalOffering != 150.5 || res.TotalDecisions != 2 {
		t.Errorf("offering/decisions = %v/%d, want 150.5/2", res.TotalOffering, res.TotalDecisions)
	}
	if res.CellMeetings != 1 || res.SundayServices != 1 || res.TotalRecords != 2 {
		t.Errorf("counts = cell %d sunday %d total %d", res.CellMeetings, res.SundayServices, res.TotalRecords)
	}
	want := LeaderTotals{MetricTotals: MetricTotals{Attendance: 70, Visitors: 8, Offering: 150.5, Decisions: 2, Services: 2}, Zone: "Chestnut"}
	if diff := cmp.Diff(want, res.LeaderStats["Leader 1"]); diff != "" {
		t.Errorf("leader stats mismatch (-want +got):\n%s", diff)
	}
}

// TestQueryAnalyticsOverview_TotalsEqualZoneSums verifies zone_stats partition the totals.
func TestQueryAnalyticsOverview_TotalsEqualZoneSums(t *testing.T) {
	res, err := QueryAnalyticsOverview(context.Background(), AnalyticsQuery{Period: "year"},
		AnalyticsDeps{RecordStore: &mockRecordReader{records: sampleRecords()}, Now: fixedClock})
	if err != nil {
		t.Fatalf("QueryAnalyticsOverview: %v", err)
	}

	var sum MetricTotals
	offering := decimal.Zero
	for _, z := range res.ZoneStats {
		sum.Attendance += z.Attendance
		sum.Visitors += z.Visitors
		sum.Decisions += z.Decisions
		sum.Services += z.Services
		offering = offering.Add(decimal.NewFromFloat(z.Offering))
	}
	if sum.Attendance != res.TotalAttendance || sum.Visitors != res.TotalVisitors || sum.Decisions != res.TotalDecisions {
		t.Errorf("zone sums %+v do not match totals %+v", sum, res)
	}
	if sum.Services != res.TotalRecords {
		t.Errorf("zone services = %d, want %d", sum.Services, res.TotalRecords)
	}
	if offering.InexactFloat64() != res.TotalOffering {
		t.Errorf("zone offering = %v, want %v", offering, res.TotalOffering)
	}
	if res.ZoneStats["KB South"].Offering != 0.3 {
		t.Errorf("KB South offering = %v, want 0.3 exactly", res.ZoneStats["KB South"].Offering)
	}
}

// TestQueryAnalyticsOverview_Errors verifies window and store errors propagate.
func TestQueryAnalyticsOverview_Errors(t *testing.T) {
	store := &mockRecordReader{}
	_, err := QueryAnalyticsOverview(context.Background(), AnalyticsQuery{Period: "week", StartDate: "bad"},
		AnalyticsDeps{RecordStore: store, Now: fixedClock})
	if !apperror.Is(err, apperror.KindInvalidArgument) {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
	if store.calls != 0 {
		t.Errorf("store called %d times on invalid window", store.calls)
	}

	boom := errors.New("boom")
	_, err = QueryAnalyticsOverview(context.Background(), AnalyticsQuery{Period: "week"},
		AnalyticsDeps{RecordStore: &mockRecordReader{err: boom}, Now: fixedClock})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

// TestQueryAnalyticsTrends_Buckets verifies daily and monthly bucketing.
func TestQueryAnalyticsTrends_Buckets(t *testing.T) {
	deps := AnalyticsDeps{RecordStore: &mockRecordReader{records: sampleRecords()}, Now: fixedClock}

	daily, err := QueryAnalyticsTrends(context.Background(), AnalyticsQuery{Period: "month"}, deps)
	if err != nil {
		t.Fatalf("QueryAnalyticsTrends: %v", err)
	}
	var dates []string
	for _, p := range daily {
		dates = append(dates, p.Date)
	}
	if diff := cmp.Diff([]string{"2024-02-20", "2024-02-21", "2024-03-10", "2024-03-12"}, dates); diff != "" {
		t.Errorf("daily buckets (-want +got):\n%s", diff)
	}

	monthly, err := QueryAnalyticsTrends(context.Background(), AnalyticsQuery{Period: "year"}, deps)
	if err != nil {
		t.Fatalf("QueryAnalyticsTrends: %v", err)
	}
	want := []TrendPoint{
		{Date: "2024-02", MetricTotals: MetricTotals{Attendance: 20, Visitors: 1, Offering: 0.3, Decisions: 1, Services: 2}},
		{Date: "2024-03", MetricTotals: MetricTotals{Attendance: 70, Visitors: 8, Offering: 150.5, Decisions: 2, Services: 2}},
	}
	if diff := cmp.Diff(want, monthly); diff != "" {
		t.Errorf("monthly buckets (-want +got):\n%s", diff)
	}
}

// TestQueryAnalyticsTrends_SumsMatchOverview verifies trend buckets add up to the overview.
func TestQueryAnalyticsTrends_SumsMatchOverview(t *testing.T) {
	deps := AnalyticsDeps{RecordStore: &mockRecordReader{records: sampleRecords()}, Now: fixedClock}
	q := AnalyticsQuery{Period: "year"}

	overview, err := QueryAnalyticsOverview(context.Background(), q, deps)
	if err != nil {
		t.Fatal(err)
	}
	points, err := QueryAnalyticsTrends(context.Background(), q, deps)
	if err != nil {
		t.Fatal(err)
	}
	var attendance, visitors, decisions int64
	var services int
	offering := decimal.Zero
	for _, p := range points {
		attendance += p.Attendance
		visitors += p.Visitors
		decisions += p.Decisions
		services += p.Services
		offering = offering.Add(decimal.NewFromFloat(p.Offering))
	}
	if attendance != overview.TotalAttendance || visitors != overview.TotalVisitors ||
		decisions != overview.TotalDecisions || services != overview.TotalRecords {
		t.Errorf("trend sums %d/%d/%d/%d differ from overview %+v", attendance, visitors, decisions, services, overview)
	}
	if offering.InexactFloat64() != overview.TotalOffering {
		t.Errorf("trend offering = %v, want %v", offering, overview.TotalOffering)
	}
}
