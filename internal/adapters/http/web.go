// Package web serves the cell tracker JSON API, the login form and static assets.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"celltracker/internal/adapters/assets"
	"celltracker/internal/adapters/http/middleware"
	backupStore "celltracker/internal/adapters/storage/backup"
	leaderStore "celltracker/internal/adapters/storage/leader"
	recordStore "celltracker/internal/adapters/storage/servicerecord"
	"celltracker/internal/domain/leader"
)

// Stores holds all storage dependencies.
type Stores struct {
	LeaderStore leaderStore.Store
	RecordStore recordStore.Store
	BackupStore backupStore.Store
}

// Options configures the router.
type Options struct {
	StaticDir         string
	Assets            assets.Store
	Directory         leader.Directory
	AdminPassword     string
	AdminPasswordHash string
	CSRFKey           []byte // 32 bytes
	TrustedOrigins    []string
	SecureCookies     bool
	SessionTTL        time.Duration
	RateLimit         int // requests per minute per IP, 0 disables
	SlowRequest       time.Duration
	MaxUploadBytes    int64
	AllowSeed         bool
	MetricsEnabled    bool
	Now               func() time.Time
}

// server carries the dependencies shared by all handlers.
type server struct {
	stores   *Stores
	opts     Options
	sessions *middleware.SessionStore
	router   chi.Router
}

// NewRouter wires HTTP handlers for the app.
// PRE: stores and opts.Assets are non-nil; opts.CSRFKey is 32 bytes
// POST: Returns the root handler with timing, security headers, rate limiting and sessions applied
func NewRouter(stores *Stores, opts Options) http.Handler {
	return newServer(stores, opts).router
}

func newServer(stores *Stores, opts Options) *server {
	s := &server{
		stores:   stores,
		opts:     opts,
		sessions: middleware.NewSessionStore(opts.SessionTTL),
	}

	r := chi.NewRouter()
	s.router = r
	r.Use(
		middleware.Timing(opts.SlowRequest),
		middleware.SecurityHeaders,
		middleware.RateLimit(opts.RateLimit),
		middleware.Auth(s.sessions),
	)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir()))))
	if opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/", s.handlePage("index"))
	r.Get("/dashboard", s.handlePage("dashboard"))

	r.Group(func(r chi.Router) {
		r.Use(middleware.PlaintextHTTP(opts.SecureCookies), middleware.CSRF(opts.CSRFKey, opts.TrustedOrigins, opts.SecureCookies))
		r.Get("/login", s.handleLogin)
		r.Post("/login", s.handleLogin)
	})
	r.Get("/logout", s.handleLogout)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search-leaders", s.handleSearchLeaders)
		r.Get("/analytics/overview", s.handleAnalyticsOverview)
		r.Get("/analytics/trends", s.handleAnalyticsTrends)
		r.Get("/recent-submissions", s.handleRecentSubmissions)
		r.Get("/stats/overview", s.handleStatsOverview)
		r.Get("/zones", s.handleZones)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/leaders", s.handleListLeaders)
			r.Post("/leader", s.handleCreateLeader)
			r.Get("/leader/{id}", s.handleGetLeader)
			r.Put("/leader/{id}", s.handleUpdateLeader)
			r.Delete("/leader/{id}/delete", s.handleDeleteLeader)
			r.Post("/leader/{id}/upload-picture", s.handleUploadPicture)
			r.Post("/leader/{id}/remove-picture", s.handleRemovePicture)
			r.Post("/submit-totals", s.handleSubmitTotals)
			r.Get("/export-csv", s.handleExportCSV)
			r.Get("/backup-data", s.handleBackupData)
			r.Post("/restore-data", s.handleRestoreData)
			r.Get("/debug/routes", s.handleDebugRoutes)
			if opts.AllowSeed {
				r.Post("/seed-database", s.handleSeedDatabase)
			}
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/enter-totals", s.handlePage("enter-totals"))
		r.Get("/leaders-management", s.handlePage("leaders-management"))
		r.Get("/system-status", s.handlePage("system-status"))
	})

	return s
}
