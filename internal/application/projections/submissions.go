package projections

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	recordStore "celltracker/internal/adapters/storage/servicerecord"
	domainRecord "celltracker/internal/domain/servicerecord"
)

// RecentLimit caps the recent submissions list.
const RecentLimit = 20

// StatsWindowDays is the lookback for recent_submissions in the stats overview.
const StatsWindowDays = 7

// RecentSubmission is one row of the recent submissions feed.
type RecentSubmission struct {
	ID          int64   `json:"id"`
	LeaderName  string  `json:"leader_name"`
	LeaderZone  string  `json:"leader_zone"`
	ServiceType string  `json:"service_type"`
	ServiceDate string  `json:"service_date"`
	Attendance  int64   `json:"attendance"`
	Visitors    int64   `json:"visitors"`
	Offering    float64 `json:"offering"`
	Decisions   int64   `json:"decisions"`
	Notes       string  `json:"notes"`
	SubmittedAt string  `json:"submitted_at"`
}

// RecentSubmissionsDeps holds dependencies for QueryRecentSubmissions.
type RecentSubmissionsDeps struct {
	RecordStore RecordReader
}

// QueryRecentSubmissions returns the newest submissions with effective metrics.
// PRE: none
// POST: At most RecentLimit rows, newest submitted_at first
func QueryRecentSubmissions(ctx context.Context, deps RecentSubmissionsDeps) ([]RecentSubmission, error) {
	records, err := deps.RecordStore.ListDetailed(ctx, recordStore.Filter{
		Order: recordStore.OrderSubmittedDesc,
		Limit: RecentLimit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]RecentSubmission, 0, len(records))
	for i := range records {
		r := &records[i]
		m := r.Effective()
		out = append(out, RecentSubmission{
			ID:          r.ID,
			LeaderName:  r.LeaderName,
			LeaderZone:  r.LeaderZone,
			ServiceType: r.ServiceType,
			ServiceDate: r.ServiceDate,
			Attendance:  m.Attendance,
			Visitors:    m.Visitors,
			Offering:    m.OfferingFloat(),
			Decisions:   m.Decisions,
			Notes:       r.Notes,
			SubmittedAt: r.SubmittedAt.UTC().Format(domainRecord.DisplayLayout),
		})
	}
	return out, nil
}

// StatsReader is the store subset used by QueryStatsOverview.
type StatsReader interface {
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, date string) (int, error)
	SumCellOffering(ctx context.Context) (decimal.Decimal, error)
}

// ActiveCounter counts active leaders.
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// StatsOverviewResult carries the query result.
type StatsOverviewResult struct {
	TotalSubmissions  int     `json:"total_submissions"`
	TotalLeaders      int     `json:"total_leaders"`
	RecentSubmissions int     `json:"recent_submissions"`
	TotalOffering     float64 `json:"total_offering"`
}

// StatsOverviewDeps holds dependencies for QueryStatsOverview.
type StatsOverviewDeps struct {
	RecordStore StatsReader
	LeaderStore ActiveCounter
	Now         func() time.Time
}

// QueryStatsOverview reports headline counts for the landing page.
// PRE: none
// POST: recent_submissions counts service dates within the last StatsWindowDays days
func QueryStatsOverview(ctx context.Context, deps StatsOverviewDeps) (StatsOverviewResult, error) {
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -StatsWindowDays).Format(domainRecord.DateLayout)

	var (
		res StatsOverviewResult
		err error
	)
	if res.TotalSubmissions, err = deps.RecordStore.Count(ctx); err != nil {
		return StatsOverviewResult{}, err
	}
	if res.TotalLeaders, err = deps.LeaderStore.CountActive(ctx); err != nil {
		return StatsOverviewResult{}, err
	}
	if res.RecentSubmissions, err = deps.RecordStore.CountSince(ctx, since); err != nil {
		return StatsOverviewResult{}, err
	}
	sum, err := deps.RecordStore.SumCellOffering(ctx)
	if err != nil {
		return StatsOverviewResult{}, err
	}
	res.TotalOffering = sum.InexactFloat64()
	return res, nil
}
