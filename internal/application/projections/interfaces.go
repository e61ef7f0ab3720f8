package projections

import (
	"context"

	leaderStore "celltracker/internal/adapters/storage/leader"
	recordStore "celltracker/internal/adapters/storage/servicerecord"
	domainLeader "celltracker/internal/domain/leader"
	domainRecord "celltracker/internal/domain/servicerecord"
)

// LeaderReader is the leader store subset used by the leader projections.
type LeaderReader interface {
	GetByID(ctx context.Context, id int64) (domainLeader.Leader, error)
	List(ctx context.Context, filter leaderStore.ListFilter) ([]domainLeader.Leader, error)
	Search(ctx context.Context, query string, limit int) ([]domainLeader.Leader, error)
	CountActive(ctx context.Context) (int, error)
}

// RecordReader is the service record store subset used by the aggregate projections.
type RecordReader interface {
	ListDetailed(ctx context.Context, filter recordStore.Filter) ([]domainRecord.Detailed, error)
}

// PictureURLer resolves a stored picture filename to its public URL.
type PictureURLer interface {
	URL(filename string) string
}
