package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"celltracker/internal/adapters/http/middleware"
	"celltracker/internal/domain/apperror"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_error", "error", err.Error())
	}
}

// writeResult writes a {success, message, ...} body.
func writeResult(w http.ResponseWriter, status int, success bool, message string, extra map[string]any) {
	body := map[string]any{"success": success, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err.Error(),
	)
	writeResult(w, http.StatusInternalServerError, false, "Internal server error", nil)
}

// writeError maps a classified error to its status and message.
// storageStatus is the status used for storage failures at this call site;
// prefix is prepended to the message, as in "Error creating leader: ".
func writeError(w http.ResponseWriter, r *http.Request, err error, storageStatus int, prefix string) {
	var status int
	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindInvalidArgument, apperror.KindRestore:
		status = http.StatusBadRequest
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindStorage:
		status = storageStatus
	default:
		internalError(w, r, err)
		return
	}
	if status >= http.StatusInternalServerError || apperror.Is(err, apperror.KindStorage) {
		slog.Error("request_failed",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"kind", string(apperror.KindOf(err)),
			"error", err.Error(),
		)
	}
	writeResult(w, status, false, prefix+apperror.MessageOf(err, "storage failure"), nil)
}

// decodeJSON reads a JSON request body into v.
// POST: Malformed or empty bodies are reported as validation errors
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Validation("invalid JSON body")
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidArgument("invalid leader id: %s", raw)
	}
	return id, nil
}

// queryInt64 parses an optional integer query parameter; empty yields 0.
func queryInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.InvalidArgument("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
