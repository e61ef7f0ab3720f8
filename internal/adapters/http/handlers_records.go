package web

import (
	"bytes"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"celltracker/internal/application/orchestrators"
	"celltracker/internal/application/projections"
	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/servicerecord"
)

// FlexInt64 accepts a JSON number or a numeric string; form-driven clients send both.
type FlexInt64 int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt64) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", s)
	}
	*f = FlexInt64(v)
	return nil
}

// submitRequest is the JSON body of POST /api/submit-totals.
// Metric fields are optional and default to zero.
type submitRequest struct {
	LeaderID         FlexInt64       `json:"leader_id" validate:"gt=0"`
	ServiceType      string          `json:"service_type" validate:"required,oneof=sunday cell"`
	ServiceDate      string          `json:"service_date" validate:"required"`
	SundayAttendance FlexInt64       `json:"sunday_attendance"`
	SundayVisitors   FlexInt64       `json:"sunday_visitors"`
	CellAttendance   FlexInt64       `json:"cell_attendance"`
	CellVisitors     FlexInt64       `json:"cell_visitors"`
	CellOffering     decimal.Decimal `json:"cell_offering"`
	CellDecisions    FlexInt64       `json:"cell_decisions"`
	Notes            string          `json:"notes"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags and reports the first failure as a validation error.
func validateRequest(v any) error {
	err := requestValidator.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperror.Validation("%s", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "gt":
		return apperror.Validation("%s is required", fe.Field())
	case "oneof":
		return apperror.Validation("%s", servicerecord.ErrInvalidServiceType)
	default:
		return apperror.Validation("%s is invalid", fe.Field())
	}
}

// handleSubmitTotals handles POST /api/submit-totals
func (s *server) handleSubmitTotals(w http.ResponseWriter, r *http.Request) {
	const prefix = "Error submitting totals: "
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	req.ServiceDate = strings.TrimSpace(req.ServiceDate)
	if err := validateRequest(req); err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}

	id, err := orchestrators.ExecuteSubmitTotals(r.Context(), orchestrators.SubmitTotalsInput{
		LeaderID:    int64(req.LeaderID),
		ServiceType: req.ServiceType,
		ServiceDate: req.ServiceDate,
		Tally: servicerecord.Tally{
			SundayAttendance: int64(req.SundayAttendance),
			SundayVisitors:   int64(req.SundayVisitors),
			CellAttendance:   int64(req.CellAttendance),
			CellVisitors:     int64(req.CellVisitors),
			CellOffering:     req.CellOffering,
			CellDecisions:    int64(req.CellDecisions),
		},
		Notes: req.Notes,
	}, orchestrators.SubmitTotalsDeps{
		LeaderStore: s.stores.LeaderStore,
		RecordStore: s.stores.RecordStore,
		Now:         s.opts.Now,
	})
	if err != nil {
		writeError(w, r, err, http.StatusBadRequest, prefix)
		return
	}
	writeResult(w, http.StatusOK, true, "Totals submitted successfully!", map[string]any{"record_id": id})
}

// handleRecentSubmissions handles GET /api/recent-submissions
func (s *server) handleRecentSubmissions(w http.ResponseWriter, r *http.Request) {
	items, err := projections.QueryRecentSubmissions(r.Context(), projections.RecentSubmissionsDeps{
		RecordStore: s.stores.RecordStore,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleExportCSV handles GET /api/export-csv
// The body is buffered so a failed query can still produce a JSON error.
func (s *server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var buf bytes.Buffer
	err := projections.QueryExportCSV(r.Context(), projections.ExportCSVQuery{
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
		Zone:      q.Get("zone"),
	}, &buf, projections.ExportCSVDeps{RecordStore: s.stores.RecordStore})
	if err != nil {
		if apperror.Is(err, apperror.KindInvalidArgument) {
			writeError(w, r, err, http.StatusBadRequest, "")
			return
		}
		internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+projections.ExportFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
