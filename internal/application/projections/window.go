package projections

import (
	"time"

	"celltracker/internal/domain/apperror"
	domainRecord "celltracker/internal/domain/servicerecord"
)

// Period tokens
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Window is a resolved inclusive date range with its trend bucket layout.
type Window struct {
	Start        string // YYYY-MM-DD
	End          string // YYYY-MM-DD
	BucketLayout string // DateLayout (daily) or MonthLayout (monthly)
}

// ResolveWindow turns a period token and optional explicit dates into a date range.
// PRE: now is the reference instant; its local calendar date is "today"
// POST: week/month/year give today-7d/-30d/-365d through today; unknown tokens fall back to year.
// Explicit start/end override the corresponding bound. Malformed dates or start > end
// return an InvalidArgument error.
func ResolveWindow(period, startDate, endDate string, now time.Time) (Window, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	days := 365
	layout := domainRecord.MonthLayout
	switch period {
	case PeriodWeek:
		days, layout = 7, domainRecord.DateLayout
	case PeriodMonth:
		days, layout = 30, domainRecord.DateLayout
	}

	w := Window{
		Start:        today.AddDate(0, 0, -days).Format(domainRecord.DateLayout),
		End:          today.Format(domainRecord.DateLayout),
		BucketLayout: layout,
	}
	if startDate != "" {
		d, err := domainRecord.ParseDate(startDate)
		if err != nil {
			return Window{}, apperror.InvalidArgument("invalid start_date: %s", startDate)
		}
		w.Start = d.Format(domainRecord.DateLayout)
	}
	if endDate != "" {
		d, err := domainRecord.ParseDate(endDate)
		if err != nil {
			return Window{}, apperror.InvalidArgument("invalid end_date: %s", endDate)
		}
		w.End = d.Format(domainRecord.DateLayout)
	}
	if w.Start > w.End {
		return Window{}, apperror.InvalidArgument("start_date %s is after end_date %s", w.Start, w.End)
	}
	return w, nil
}

// bucketKey formats a YYYY-MM-DD service date with the window's bucket layout.
func (w Window) bucketKey(serviceDate string) string {
	if w.BucketLayout == domainRecord.MonthLayout && len(serviceDate) >= 7 {
		return serviceDate[:7]
	}
	return serviceDate
}
