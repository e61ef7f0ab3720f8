package servicerecord

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domain "celltracker/internal/domain/servicerecord"
)

// Store persists ServiceRecord state and answers the aggregate reads.
type Store interface {
	Create(ctx context.Context, value domain.Record) (int64, error)
	ListDetailed(ctx context.Context, filter Filter) ([]domain.Detailed, error)
	ActivityByLeader(ctx context.Context) (map[int64]Activity, error)
	CountForLeader(ctx context.Context, leaderID int64) (int, error)
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, date string) (int, error)
	SumCellOffering(ctx context.Context) (decimal.Decimal, error)
}

// Order selects the sort order of ListDetailed.
type Order int

const (
	// OrderDateAsc sorts by service_date, then id.
	OrderDateAsc Order = iota
	// OrderDateDesc sorts by service_date descending, then id descending.
	OrderDateDesc
	// OrderSubmittedDesc sorts newest submission first.
	OrderSubmittedDesc
)

// Filter carries the selection for ListDetailed. Empty fields do not filter.
type Filter struct {
	StartDate string // inclusive, YYYY-MM-DD
	EndDate   string // inclusive, YYYY-MM-DD
	Zone      string
	LeaderID  int64
	Order     Order
	Limit     int
}

// Activity summarises one leader's submissions.
type Activity struct {
	Count         int
	LastSubmitted time.Time
}
