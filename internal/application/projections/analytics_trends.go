package projections

import (
	"context"
	"sort"
)

// TrendPoint is one time bucket of the trend series.
type TrendPoint struct {
	Date string `json:"date"`
	MetricTotals
}

// QueryAnalyticsTrends buckets the windowed records by day or by month.
// PRE: Same inputs as QueryAnalyticsOverview
// POST: Points are sorted ascending by bucket key; empty buckets are omitted
// INVARIANT: week and month bucket by YYYY-MM-DD, everything else by YYYY-MM
func QueryAnalyticsTrends(ctx context.Context, query AnalyticsQuery, deps AnalyticsDeps) ([]TrendPoint, error) {
	w, records, err := listWindow(ctx, query, deps)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*group)
	for i := range records {
		key := w.bucketKey(records[i].ServiceDate)
		g, ok := buckets[key]
		if !ok {
			g = &group{}
			buckets[key] = g
		}
		g.add(records[i].Effective())
	}

	points := make([]TrendPoint, 0, len(buckets))
	for key, g := range buckets {
		points = append(points, TrendPoint{Date: key, MetricTotals: g.totals()})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}
