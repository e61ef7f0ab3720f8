package projections

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	leaderStore "celltracker/internal/adapters/storage/leader"
	recordStore "celltracker/internal/adapters/storage/servicerecord"
	"celltracker/internal/domain/apperror"
	domainRecord "celltracker/internal/domain/servicerecord"
)

// Search limits
const (
	SearchLimit        = 10
	SearchDefaultLimit = 5
)

// NeverSubmitted is rendered as last_submission for leaders without records.
const NeverSubmitted = "Never"

// ActivityReader returns per-leader submission counts.
type ActivityReader interface {
	ActivityByLeader(ctx context.Context) (map[int64]recordStore.Activity, error)
}

// LeaderListItem is a leader with its submission activity.
type LeaderListItem struct {
	LeaderView
	TotalSubmissions int    `json:"total_submissions"`
	LastSubmission   string `json:"last_submission"`
}

// LeaderListQuery carries query parameters.
type LeaderListQuery struct {
	Zone       string
	ActiveOnly bool
}

// LeaderListDeps holds dependencies for QueryLeaderList.
type LeaderListDeps struct {
	LeaderStore    LeaderReader
	ActivityReader ActivityReader
	Pictures       PictureURLer
}

// QueryLeaderList lists leaders ordered by name with their submission activity.
// PRE: none
// POST: Every item carries total_submissions and last_submission (YYYY-MM-DD or "Never")
func QueryLeaderList(ctx context.Context, query LeaderListQuery, deps LeaderListDeps) ([]LeaderListItem, error) {
	leaders, err := deps.LeaderStore.List(ctx, leaderStore.ListFilter{Zone: query.Zone, ActiveOnly: query.ActiveOnly})
	if err != nil {
		return nil, err
	}
	activity, err := deps.ActivityReader.ActivityByLeader(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]LeaderListItem, 0, len(leaders))
	for _, l := range leaders {
		item := LeaderListItem{
			LeaderView:     newLeaderView(l, deps.Pictures),
			LastSubmission: NeverSubmitted,
		}
		if a, ok := activity[l.ID]; ok && a.Count > 0 {
			item.TotalSubmissions = a.Count
			item.LastSubmission = a.LastSubmitted.UTC().Format(domainRecord.DateLayout)
		}
		items = append(items, item)
	}
	return items, nil
}

// LeaderDetailDeps holds dependencies for QueryLeaderDetail.
type LeaderDetailDeps struct {
	LeaderStore LeaderReader
	Pictures    PictureURLer
}

// QueryLeaderDetail loads one leader.
// PRE: id > 0
// POST: Returns the leader view or a NotFound error
func QueryLeaderDetail(ctx context.Context, id int64, deps LeaderDetailDeps) (LeaderView, error) {
	l, err := deps.LeaderStore.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return LeaderView{}, apperror.NotFound("leader %d not found", id)
	}
	if err != nil {
		return LeaderView{}, err
	}
	return newLeaderView(l, deps.Pictures), nil
}

// LeaderSummary is the search result shape.
type LeaderSummary struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Zone              string  `json:"zone"`
	CellDay           string  `json:"cell_day"`
	ContactNumber     string  `json:"contact_number"`
	Email             string  `json:"email"`
	ProfilePicture    *string `json:"profile_picture"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	Initials          string  `json:"initials"`
}

// QuerySearchLeaders matches active leaders by name or zone.
// PRE: none
// POST: At most SearchLimit matches; an empty query returns the first SearchDefaultLimit active leaders
// INVARIANT: Matching is a case-insensitive substring test
func QuerySearchLeaders(ctx context.Context, q string, deps LeaderDetailDeps) ([]LeaderSummary, error) {
	q = strings.TrimSpace(q)
	limit := SearchLimit
	if q == "" {
		limit = SearchDefaultLimit
	}
	leaders, err := deps.LeaderStore.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	out := make([]LeaderSummary, 0, len(leaders))
	for _, l := range leaders {
		v := newLeaderView(l, deps.Pictures)
		out = append(out, LeaderSummary{
			ID:                v.ID,
			Name:              v.Name,
			Zone:              v.Zone,
			CellDay:           v.CellDay,
			ContactNumber:     v.ContactNumber,
			Email:             v.Email,
			ProfilePicture:    v.ProfilePicture,
			ProfilePictureURL: v.ProfilePictureURL,
			Initials:          v.Initials,
		})
	}
	return out, nil
}
