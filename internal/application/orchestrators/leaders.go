package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/leader"
	"celltracker/internal/metrics"
)

// LeaderStoreForCRUD defines the store interface needed by the leader orchestrators.
type LeaderStoreForCRUD interface {
	GetByID(ctx context.Context, id int64) (leader.Leader, error)
	Create(ctx context.Context, value leader.Leader) (int64, error)
	Update(ctx context.Context, value leader.Leader) error
	Delete(ctx context.Context, id int64) error
}

// RecordCounter counts the service records of a leader.
type RecordCounter interface {
	CountForLeader(ctx context.Context, leaderID int64) (int, error)
}

// AssetDeleter removes stored profile pictures.
type AssetDeleter interface {
	Delete(ctx context.Context, filename string) error
}

// CreateLeaderInput carries input for the create orchestrator.
type CreateLeaderInput struct {
	Name          string
	Zone          string
	CellDay       string
	ContactNumber string
	Email         string
	Address       string
}

// CreateLeaderDeps holds dependencies for CreateLeader.
type CreateLeaderDeps struct {
	LeaderStore LeaderStoreForCRUD
	Now         func() time.Time
}

// ExecuteCreateLeader validates and persists a new leader.
// PRE: none
// POST: Returns the new id; the leader is active with created_at = updated_at
// INVARIANT: Name and zone are trimmed and non-empty
func ExecuteCreateLeader(ctx context.Context, input CreateLeaderInput, deps CreateLeaderDeps) (int64, error) {
	l := leader.New(input.Name, input.Zone, strings.TrimSpace(input.CellDay))
	l.ContactNumber = strings.TrimSpace(input.ContactNumber)
	l.Email = strings.TrimSpace(input.Email)
	l.Address = strings.TrimSpace(input.Address)
	if err := l.Validate(); err != nil {
		return 0, apperror.Validation("%s", err)
	}
	l.Touch(clock(deps.Now))
	l.CreatedAt = l.UpdatedAt

	id, err := deps.LeaderStore.Create(ctx, l)
	if err != nil {
		return 0, apperror.Storage("failed to create leader", err)
	}

	metrics.LeaderEvents.WithLabelValues("created").Inc()
	slog.Info("leader_event", "event", "leader_created", "leader_id", id, "zone", l.Zone)
	return id, nil
}

// UpdateLeaderInput carries input for the update orchestrator.
// Nil CellDay keeps the current value; nil IsActive means active.
type UpdateLeaderInput struct {
	ID            int64
	Name          string
	Zone          string
	CellDay       *string
	ContactNumber string
	Email         string
	Address       string
	IsActive      *bool
}

// UpdateLeaderDeps holds dependencies for UpdateLeader.
type UpdateLeaderDeps struct {
	LeaderStore LeaderStoreForCRUD
	Now         func() time.Time
}

// ExecuteUpdateLeader replaces the editable fields of a leader.
// PRE: input.ID > 0
// POST: Editable fields replaced and updated_at refreshed; profile picture and created_at untouched
func ExecuteUpdateLeader(ctx context.Context, input UpdateLeaderInput, deps UpdateLeaderDeps) error {
	l, err := loadLeader(ctx, deps.LeaderStore, input.ID)
	if err != nil {
		return err
	}

	l.Name = strings.TrimSpace(input.Name)
	l.Zone = strings.TrimSpace(input.Zone)
	if input.CellDay != nil && strings.TrimSpace(*input.CellDay) != "" {
		l.CellDay = strings.TrimSpace(*input.CellDay)
	}
	l.ContactNumber = strings.TrimSpace(input.ContactNumber)
	l.Email = strings.TrimSpace(input.Email)
	l.Address = strings.TrimSpace(input.Address)
	l.IsActive = input.IsActive == nil || *input.IsActive
	if err := l.Validate(); err != nil {
		return apperror.Validation("%s", err)
	}
	l.Touch(clock(deps.Now))

	if err := deps.LeaderStore.Update(ctx, l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("leader %d not found", input.ID)
		}
		return apperror.Storage("failed to update leader", err)
	}

	metrics.LeaderEvents.WithLabelValues("updated").Inc()
	slog.Info("leader_event", "event", "leader_updated", "leader_id", l.ID, "is_active", l.IsActive)
	return nil
}

// DeleteLeaderDeps holds dependencies for DeleteLeader.
type DeleteLeaderDeps struct {
	LeaderStore   LeaderStoreForCRUD
	RecordCounter RecordCounter
	Assets        AssetDeleter
}

// ExecuteDeleteLeader removes a leader without service records.
// PRE: id > 0
// POST: The picture asset is removed (failures logged) and the row deleted
// INVARIANT: Leaders with service records are never deleted; they must be deactivated
func ExecuteDeleteLeader(ctx context.Context, id int64, deps DeleteLeaderDeps) error {
	l, err := loadLeader(ctx, deps.LeaderStore, id)
	if err != nil {
		return err
	}

	n, err := deps.RecordCounter.CountForLeader(ctx, id)
	if err != nil {
		return apperror.Storage("failed to count service records", err)
	}
	if n > 0 {
		return apperror.Validation("leader has %d service records; deactivate the leader instead of deleting", n)
	}

	if l.HasProfilePicture() {
		if err := deps.Assets.Delete(ctx, l.ProfilePicture); err != nil {
			slog.Warn("leader_event", "event", "picture_delete_failed", "leader_id", id, "file", l.ProfilePicture, "error", err)
		}
	}

	if err := deps.LeaderStore.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("leader %d not found", id)
		}
		return apperror.Storage("failed to delete leader", err)
	}

	metrics.LeaderEvents.WithLabelValues("deleted").Inc()
	slog.Info("leader_event", "event", "leader_deleted", "leader_id", id)
	return nil
}

// LeaderGetter loads one leader.
type LeaderGetter interface {
	GetByID(ctx context.Context, id int64) (leader.Leader, error)
}

func loadLeader(ctx context.Context, store LeaderGetter, id int64) (leader.Leader, error) {
	l, err := store.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return leader.Leader{}, apperror.NotFound("leader %d not found", id)
	}
	if err != nil {
		return leader.Leader{}, apperror.Storage("failed to load leader", err)
	}
	return l, nil
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now()
}
