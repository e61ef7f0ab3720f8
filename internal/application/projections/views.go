package projections

import (
	domainLeader "celltracker/internal/domain/leader"
	domainRecord "celltracker/internal/domain/servicerecord"
)

// LeaderView is the JSON shape of a leader.
type LeaderView struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Zone              string  `json:"zone"`
	CellDay           string  `json:"cell_day"`
	ContactNumber     string  `json:"contact_number"`
	Email             string  `json:"email"`
	Address           string  `json:"address"`
	ProfilePicture    *string `json:"profile_picture"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	Initials          string  `json:"initials"`
	IsActive          bool    `json:"is_active"`
}

func newLeaderView(l domainLeader.Leader, pictures PictureURLer) LeaderView {
	v := LeaderView{
		ID:            l.ID,
		Name:          l.Name,
		Zone:          l.Zone,
		CellDay:       l.CellDay,
		ContactNumber: l.ContactNumber,
		Email:         l.Email,
		Address:       l.Address,
		Initials:      l.Initials(),
		IsActive:      l.IsActive,
	}
	if l.HasProfilePicture() {
		pic := l.ProfilePicture
		url := pictures.URL(pic)
		v.ProfilePicture = &pic
		v.ProfilePictureURL = &url
	}
	return v
}

// MetricTotals is the JSON shape of accumulated metrics.
type MetricTotals struct {
	Attendance int64   `json:"attendance"`
	Visitors   int64   `json:"visitors"`
	Offering   float64 `json:"offering"`
	Decisions  int64   `json:"decisions"`
	Services   int     `json:"services"`
}

// group accumulates metrics in decimal until rendered.
type group struct {
	metrics  domainRecord.Metrics
	services int
}

func (g *group) add(m domainRecord.Metrics) {
	g.metrics.Add(m)
	g.services++
}

func (g *group) totals() MetricTotals {
	return MetricTotals{
		Attendance: g.metrics.Attendance,
		Visitors:   g.metrics.Visitors,
		Offering:   g.metrics.OfferingFloat(),
		Decisions:  g.metrics.Decisions,
		Services:   g.services,
	}
}
