package backup

import (
	"context"

	domain "celltracker/internal/domain/backup"
)

// Store reads and atomically replaces the whole dataset.
type Store interface {
	LoadAll(ctx context.Context) (domain.Dataset, error)
	ReplaceAll(ctx context.Context, data domain.Dataset) error
}
