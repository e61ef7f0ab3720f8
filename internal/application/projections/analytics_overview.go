package projections

import (
	"context"
	"time"

	recordStore "celltracker/internal/adapters/storage/servicerecord"
	domainRecord "celltracker/internal/domain/servicerecord"
)

// AnalyticsQuery carries the window and filters shared by overview and trends.
type AnalyticsQuery struct {
	Period    string
	StartDate string
	EndDate   string
	Zone      string
	LeaderID  int64
}

// LeaderTotals is MetricTotals plus the leader's zone.
type LeaderTotals struct {
	MetricTotals
	Zone string `json:"zone"`
}

// AnalyticsOverviewResult carries the query result.
type AnalyticsOverviewResult struct {
	Period          string                  `json:"period"`
	StartDate       string                  `json:"start_date"`
	EndDate         string                  `json:"end_date"`
	TotalAttendance int64                   `json:"total_attendance"`
	TotalVisitors   int64                   `json:"total_visitors"`
	TotalOffering   float64                 `json:"total_offering"`
	TotalDecisions  int64                   `json:"total_decisions"`
	SundayServices  int                     `json:"sunday_services"`
	CellMeetings    int                     `json:"cell_meetings"`
	ZoneStats       map[string]MetricTotals `json:"zone_stats"`
	LeaderStats     map[string]LeaderTotals `json:"leader_stats"`
	TotalRecords    int                     `json:"total_records"`
}

// AnalyticsDeps holds dependencies for the analytics projections.
type AnalyticsDeps struct {
	RecordStore RecordReader
	Now         func() time.Time
}

func (d AnalyticsDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func listWindow(ctx context.Context, query AnalyticsQuery, deps AnalyticsDeps) (Window, []domainRecord.Detailed, error) {
	w, err := ResolveWindow(query.Period, query.StartDate, query.EndDate, deps.now())
	if err != nil {
		return Window{}, nil, err
	}
	records, err := deps.RecordStore.ListDetailed(ctx, recordStore.Filter{
		StartDate: w.Start,
		EndDate:   w.End,
		Zone:      query.Zone,
		LeaderID:  query.LeaderID,
	})
	if err != nil {
		return Window{}, nil, err
	}
	return w, records, nil
}

// QueryAnalyticsOverview aggregates the records in the resolved window.
// PRE: query.Period is any token; unknown tokens mean the last 365 days
// POST: Totals, per-zone and per-leader groups cover only the filtered records
// INVARIANT: Sunday records contribute zero offering and zero decisions
func QueryAnalyticsOverview(ctx context.Context, query AnalyticsQuery, deps AnalyticsDeps) (AnalyticsOverviewResult, error) {
	w, records, err := listWindow(ctx, query, deps)
	if err != nil {
		return AnalyticsOverviewResult{}, err
	}

	var total domainRecord.Metrics
	result := AnalyticsOverviewResult{
		Period:       query.Period,
		StartDate:    w.Start,
		EndDate:      w.End,
		TotalRecords: len(records),
	}
	zones := make(map[string]*group)
	leaders := make(map[string]*group)
	leaderZone := make(map[string]string)

	for i := range records {
		r := &records[i]
		m := r.Effective()
		total.Add(m)
		if r.ServiceType == domainRecord.TypeSunday {
			result.SundayServices++
		} else {
			result.CellMeetings++
		}

		zg, ok := zones[r.LeaderZone]
		if !ok {
			zg = &group{}
			zones[r.LeaderZone] = zg
		}
		zg.add(m)

		lg, ok := leaders[r.LeaderName]
		if !ok {
			lg = &group{}
			leaders[r.LeaderName] = lg
			leaderZone[r.LeaderName] = r.LeaderZone
		}
		lg.add(m)
	}

	result.TotalAttendance = total.Attendance
	result.TotalVisitors = total.Visitors
	result.TotalOffering = total.OfferingFloat()
	result.TotalDecisions = total.Decisions

	result.ZoneStats = make(map[string]MetricTotals, len(zones))
	for zone, g := range zones {
		result.ZoneStats[zone] = g.totals()
	}
	result.LeaderStats = make(map[string]LeaderTotals, len(leaders))
	for name, g := range leaders {
		result.LeaderStats[name] = LeaderTotals{MetricTotals: g.totals(), Zone: leaderZone[name]}
	}
	return result, nil
}
