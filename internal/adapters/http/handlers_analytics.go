package web

import (
	"net/http"
	"strings"

	"celltracker/internal/application/projections"
)

// analyticsQuery reads the shared analytics query parameters.
func analyticsQuery(r *http.Request) (projections.AnalyticsQuery, error) {
	q := r.URL.Query()
	leaderID, err := queryInt64(r, "leader_id")
	if err != nil {
		return projections.AnalyticsQuery{}, err
	}
	period := strings.TrimSpace(q.Get("period"))
	if period == "" {
		period = projections.PeriodWeek
	}
	return projections.AnalyticsQuery{
		Period:    period,
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
		Zone:      q.Get("zone"),
		LeaderID:  leaderID,
	}, nil
}

// trendsQuery reads the trend parameters; only period and zone apply to the series.
func trendsQuery(r *http.Request) projections.AnalyticsQuery {
	q := r.URL.Query()
	period := strings.TrimSpace(q.Get("period"))
	if period == "" {
		period = projections.PeriodWeek
	}
	return projections.AnalyticsQuery{Period: period, Zone: q.Get("zone")}
}

func (s *server) analyticsDeps() projections.AnalyticsDeps {
	return projections.AnalyticsDeps{RecordStore: s.stores.RecordStore, Now: s.opts.Now}
}

// handleAnalyticsOverview handles GET /api/analytics/overview
func (s *server) handleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	query, err := analyticsQuery(r)
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, "")
		return
	}
	result, err := projections.QueryAnalyticsOverview(r.Context(), query, s.analyticsDeps())
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAnalyticsTrends handles GET /api/analytics/trends
func (s *server) handleAnalyticsTrends(w http.ResponseWriter, r *http.Request) {
	points, err := projections.QueryAnalyticsTrends(r.Context(), trendsQuery(r), s.analyticsDeps())
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// handleStatsOverview handles GET /api/stats/overview
func (s *server) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := projections.QueryStatsOverview(r.Context(), projections.StatsOverviewDeps{
		RecordStore: s.stores.RecordStore,
		LeaderStore: s.stores.LeaderStore,
		Now:         s.opts.Now,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
