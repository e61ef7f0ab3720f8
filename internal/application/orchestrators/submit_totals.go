package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/servicerecord"
	"celltracker/internal/metrics"
)

// RecordStoreForSubmit defines the store interface needed by SubmitTotals.
type RecordStoreForSubmit interface {
	Create(ctx context.Context, value servicerecord.Record) (int64, error)
}

// SubmitTotalsInput carries input for the submit orchestrator.
type SubmitTotalsInput struct {
	LeaderID    int64
	ServiceType string
	ServiceDate string
	Tally       servicerecord.Tally
	Notes       string
}

// SubmitTotalsDeps holds dependencies for SubmitTotals.
type SubmitTotalsDeps struct {
	LeaderStore LeaderGetter
	RecordStore RecordStoreForSubmit
	Now         func() time.Time
}

// ExecuteSubmitTotals records one Sunday service or cell meeting.
// PRE: none
// POST: Returns the new record id; only the type-appropriate metrics are stored
// INVARIANT: The referenced leader exists
func ExecuteSubmitTotals(ctx context.Context, input SubmitTotalsInput, deps SubmitTotalsDeps) (int64, error) {
	r := servicerecord.New(input.LeaderID, strings.TrimSpace(input.ServiceType), strings.TrimSpace(input.ServiceDate),
		input.Tally, input.Notes)
	if err := r.Validate(); err != nil {
		return 0, apperror.Validation("%s", err)
	}

	if _, err := loadLeader(ctx, deps.LeaderStore, r.LeaderID); err != nil {
		return 0, err
	}

	r.SubmittedAt = clock(deps.Now).UTC().Truncate(time.Microsecond)
	id, err := deps.RecordStore.Create(ctx, r)
	if err != nil {
		return 0, apperror.Storage("failed to store service record", err)
	}

	metrics.SubmissionsTotal.WithLabelValues(r.ServiceType).Inc()
	slog.Info("record_event", "event", "totals_submitted", "record_id", id, "leader_id", r.LeaderID,
		"service_type", r.ServiceType, "service_date", r.ServiceDate)
	return id, nil
}
