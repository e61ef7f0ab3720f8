// Package metrics holds the Prometheus collectors for the HTTP surface, the
// database layer and the tally workflows. Collectors register on the default
// registry and are served by promhttp at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "celltrack_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_http_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Database
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "celltrack_db_query_duration_seconds",
			Help:    "Duration of SQLite calls in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
		[]string{"operation"},
	)

	DBSlowQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_db_slow_queries_total",
			Help: "SQLite calls slower than the configured threshold",
		},
		[]string{"operation"},
	)

	// Workflows
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_submissions_total",
			Help: "Service records submitted, by service type",
		},
		[]string{"service_type"},
	)

	LeaderEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_leader_events_total",
			Help: "Leader mutations by event",
		},
		[]string{"event"},
	)

	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_restores_total",
			Help: "Backup restore attempts by outcome",
		},
		[]string{"outcome"},
	)

	AssetOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_asset_operations_total",
			Help: "Profile picture storage operations by backend, operation and outcome",
		},
		[]string{"backend", "operation", "outcome"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celltrack_login_attempts_total",
			Help: "Admin login attempts by result",
		},
		[]string{"result"},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDBQuery records one database call; slow marks calls above the threshold.
func RecordDBQuery(operation string, duration time.Duration, slow bool) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if slow {
		DBSlowQueries.WithLabelValues(operation).Inc()
	}
}

// RecordAssetOperation records a profile picture storage call.
func RecordAssetOperation(backend, operation string, err error) {
	AssetOperations.WithLabelValues(backend, operation, outcome(err)).Inc()
}

// RecordRestore records a restore attempt.
func RecordRestore(err error) {
	RestoresTotal.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
