package web

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"celltracker/internal/application/orchestrators"
	"celltracker/internal/application/projections"
)

// BackupFilename is the attachment name of the backup download.
const BackupFilename = "church_backup.json"

// maxRestoreBytes bounds the uploaded backup document.
const maxRestoreBytes = 32 << 20

// handleBackupData handles GET /api/backup-data
func (s *server) handleBackupData(w http.ResponseWriter, r *http.Request) {
	body, err := projections.QueryBackupSnapshot(r.Context(), projections.BackupSnapshotDeps{
		BackupStore: s.stores.BackupStore,
		Now:         s.opts.Now,
	})
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "Backup failed: ")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+BackupFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleRestoreData handles POST /api/restore-data
func (s *server) handleRestoreData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRestoreBytes)
	if err := r.ParseMultipartForm(maxRestoreBytes); err != nil {
		writeResult(w, http.StatusBadRequest, false, "No file provided", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeResult(w, http.StatusBadRequest, false, "No file provided", nil)
		return
	}
	defer file.Close()
	if strings.TrimSpace(header.Filename) == "" {
		writeResult(w, http.StatusBadRequest, false, "No file selected", nil)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeResult(w, http.StatusBadRequest, false, "Restore failed: could not read upload", nil)
		return
	}

	res, err := orchestrators.ExecuteRestoreBackup(r.Context(), orchestrators.RestoreBackupInput{
		Filename: header.Filename,
		Data:     data,
	}, orchestrators.RestoreBackupDeps{BackupStore: s.stores.BackupStore, Now: s.opts.Now})
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "Restore failed: ")
		return
	}
	writeResult(w, http.StatusOK, true, "Data restored successfully!", map[string]any{
		"leaders":         res.Leaders,
		"service_records": res.Records,
	})
}

// handleSeedDatabase handles POST /api/seed-database
func (s *server) handleSeedDatabase(w http.ResponseWriter, r *http.Request) {
	n, err := orchestrators.ExecuteSeedLeaders(r.Context(), orchestrators.SeedLeadersDeps{
		BackupStore: s.stores.BackupStore,
		Directory:   s.opts.Directory,
		Now:         s.opts.Now,
	})
	if err != nil {
		writeError(w, r, err, http.StatusInternalServerError, "Seeding failed: ")
		return
	}
	writeResult(w, http.StatusOK, true, "Database seeded successfully!", map[string]any{"leaders": n})
}

// routeInfo is one entry of the route listing.
type routeInfo struct {
	Method string `json:"method"`
	Route  string `json:"route"`
}

// handleDebugRoutes handles GET /api/debug/routes
func (s *server) handleDebugRoutes(w http.ResponseWriter, r *http.Request) {
	var routes []routeInfo
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeInfo{Method: method, Route: strings.ReplaceAll(route, "/*/", "/")})
		return nil
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Route != routes[j].Route {
			return routes[i].Route < routes[j].Route
		}
		return routes[i].Method < routes[j].Method
	})
	writeJSON(w, http.StatusOK, routes)
}
