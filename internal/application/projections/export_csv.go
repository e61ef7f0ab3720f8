package projections

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	recordStore "celltracker/internal/adapters/storage/servicerecord"
	"celltracker/internal/domain/apperror"
	domainRecord "celltracker/internal/domain/servicerecord"
)

// ExportFilename is the attachment name of the CSV download.
const ExportFilename = "cell_totals_export.csv"

// ExportHeader is the first CSV row.
var ExportHeader = []string{
	"ID", "Leader Name", "Zone", "Service Type", "Service Date",
	"Attendance", "Visitors", "Offering", "Decisions", "Notes", "Submitted At",
}

// ExportCSVQuery carries the optional filters.
type ExportCSVQuery struct {
	StartDate string
	EndDate   string
	Zone      string
}

// ExportCSVDeps holds dependencies for QueryExportCSV.
type ExportCSVDeps struct {
	RecordStore RecordReader
}

// QueryExportCSV writes the filtered records to w as CSV.
// PRE: Dates, when set, are YYYY-MM-DD
// POST: Header then one row per record, newest service_date first (ties by id descending)
// INVARIANT: Rows carry effective metrics; Sunday rows show offering 0 and decisions 0
func QueryExportCSV(ctx context.Context, query ExportCSVQuery, w io.Writer, deps ExportCSVDeps) error {
	for _, d := range []string{query.StartDate, query.EndDate} {
		if d == "" {
			continue
		}
		if _, err := domainRecord.ParseDate(d); err != nil {
			return apperror.InvalidArgument("invalid date: %s", d)
		}
	}
	if query.StartDate != "" && query.EndDate != "" && query.StartDate > query.EndDate {
		return apperror.InvalidArgument("start_date %s is after end_date %s", query.StartDate, query.EndDate)
	}

	records, err := deps.RecordStore.ListDetailed(ctx, recordStore.Filter{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Zone:      query.Zone,
		Order:     recordStore.OrderDateDesc,
	})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range records {
		if err := cw.Write(exportRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(r *domainRecord.Detailed) []string {
	m := r.Effective()
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.LeaderName,
		r.LeaderZone,
		r.ServiceType,
		r.ServiceDate,
		strconv.FormatInt(m.Attendance, 10),
		strconv.FormatInt(m.Visitors, 10),
		m.Offering.String(),
		strconv.FormatInt(m.Decisions, 10),
		r.Notes,
		r.SubmittedAt.UTC().Format(domainRecord.DisplayLayout),
	}
}
