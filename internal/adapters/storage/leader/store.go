package leader

import (
	"context"
	"time"

	domain "celltracker/internal/domain/leader"
)

// Store persists Leader state.
type Store interface {
	GetByID(ctx context.Context, id int64) (domain.Leader, error)
	Create(ctx context.Context, value domain.Leader) (int64, error)
	Update(ctx context.Context, value domain.Leader) error
	SetProfilePicture(ctx context.Context, id int64, filename string, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]domain.Leader, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Leader, error)
	CountActive(ctx context.Context) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Zone       string
	ActiveOnly bool
}
