package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/leader"
	"celltracker/internal/metrics"
)

// DefaultMaxPictureBytes caps uploads when no limit is configured.
const DefaultMaxPictureBytes = 2 * 1024 * 1024

// AllowedPictureExtensions lists accepted upload extensions, lower-case without the dot.
var AllowedPictureExtensions = []string{"png", "jpg", "jpeg", "gif"}

// LeaderStoreForPicture defines the store interface needed by the picture orchestrators.
type LeaderStoreForPicture interface {
	GetByID(ctx context.Context, id int64) (leader.Leader, error)
	SetProfilePicture(ctx context.Context, id int64, filename string, updatedAt time.Time) error
}

// AssetStore stores and removes profile pictures.
type AssetStore interface {
	Save(ctx context.Context, filename string, data []byte) error
	Delete(ctx context.Context, filename string) error
	URL(filename string) string
}

// UploadPictureInput carries input for the upload orchestrator.
type UploadPictureInput struct {
	LeaderID int64
	Filename string // client filename, only its extension is used
	Data     []byte
}

// UploadPictureResult carries the stored picture.
type UploadPictureResult struct {
	Filename string
	URL      string
}

// PictureDeps holds dependencies for the picture orchestrators.
type PictureDeps struct {
	LeaderStore LeaderStoreForPicture
	Assets      AssetStore
	MaxBytes    int64
	Now         func() time.Time
}

// ExecuteUploadPicture stores a new profile picture and replaces the previous one.
// PRE: input.LeaderID > 0
// POST: Picture stored as leader_{id}_{unix}.{ext}; previous asset removed (failures logged)
// INVARIANT: Only png/jpg/jpeg/gif up to MaxBytes are accepted
func ExecuteUploadPicture(ctx context.Context, input UploadPictureInput, deps PictureDeps) (UploadPictureResult, error) {
	if strings.TrimSpace(input.Filename) == "" || len(input.Data) == 0 {
		return UploadPictureResult{}, apperror.Validation("No file selected")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Filename), "."))
	if !allowedExtension(ext) {
		return UploadPictureResult{}, apperror.Validation("Invalid file type. Allowed: %s", strings.Join(AllowedPictureExtensions, ", "))
	}
	limit := deps.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxPictureBytes
	}
	if int64(len(input.Data)) > limit {
		return UploadPictureResult{}, apperror.Validation("File too large. Maximum size is %dMB", limit/(1024*1024))
	}

	l, err := loadLeader(ctx, deps.LeaderStore, input.LeaderID)
	if err != nil {
		return UploadPictureResult{}, err
	}

	now := clock(deps.Now)
	name := fmt.Sprintf("leader_%d_%d.%s", l.ID, now.Unix(), ext)
	if err := deps.Assets.Save(ctx, name, input.Data); err != nil {
		return UploadPictureResult{}, apperror.Storage("failed to store picture", err)
	}
	if l.HasProfilePicture() && l.ProfilePicture != name {
		if err := deps.Assets.Delete(ctx, l.ProfilePicture); err != nil {
			slog.Warn("leader_event", "event", "picture_delete_failed", "leader_id", l.ID, "file", l.ProfilePicture, "error", err)
		}
	}

	if err := deps.LeaderStore.SetProfilePicture(ctx, l.ID, name, now.UTC().Truncate(time.Microsecond)); err != nil {
		return UploadPictureResult{}, pictureStoreErr(l.ID, err)
	}

	metrics.LeaderEvents.WithLabelValues("picture_uploaded").Inc()
	slog.Info("leader_event", "event", "picture_uploaded", "leader_id", l.ID, "file", name, "bytes", len(input.Data))
	return UploadPictureResult{Filename: name, URL: deps.Assets.URL(name)}, nil
}

// ExecuteRemovePicture deletes the picture asset and clears the reference.
// PRE: id > 0
// POST: profile_picture is empty and updated_at refreshed; a missing picture is a no-op success
func ExecuteRemovePicture(ctx context.Context, id int64, deps PictureDeps) error {
	l, err := loadLeader(ctx, deps.LeaderStore, id)
	if err != nil {
		return err
	}
	if l.HasProfilePicture() {
		if err := deps.Assets.Delete(ctx, l.ProfilePicture); err != nil {
			slog.Warn("leader_event", "event", "picture_delete_failed", "leader_id", id, "file", l.ProfilePicture, "error", err)
		}
	}

	if err := deps.LeaderStore.SetProfilePicture(ctx, id, "", clock(deps.Now).UTC().Truncate(time.Microsecond)); err != nil {
		return pictureStoreErr(id, err)
	}

	metrics.LeaderEvents.WithLabelValues("picture_removed").Inc()
	slog.Info("leader_event", "event", "picture_removed", "leader_id", id)
	return nil
}

func allowedExtension(ext string) bool {
	for _, a := range AllowedPictureExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func pictureStoreErr(id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("leader %d not found", id)
	}
	return apperror.Storage("failed to update profile picture", err)
}
