package orchestrators

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/servicerecord"
	"celltracker/internal/metrics"
)

type mockRecordStore struct {
	created []servicerecord.Record
}

// Create stores the record and returns its 1-based position.
func (m *mockRecordStore) Create(_ context.Context, r servicerecord.Record) (int64, error) {
	m.created = append(m.created, r)
	return int64(len(m.created)), nil
}

func fullTally() servicerecord.Tally {
	return servicerecord.Tally{
		SundayAttendance: 50, SundayVisitors: 5,
		CellAttendance: 20, CellVisitors: 3, CellOffering: decimal.RequireFromString("150.50"), CellDecisions: 2,
	}
}

// TestExecuteSubmitTotals_CopiesActiveHalf verifies only the type's metrics are stored.
func TestExecuteSubmitTotals_CopiesActiveHalf(t *testing.T) {
	records := &mockRecordStore{}
	deps := SubmitTotalsDeps{LeaderStore: newMockLeaderStore(existingLeader(1, "")), RecordStore: records, Now: testNow}
	before := testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues("sunday"))

	id, err := ExecuteSubmitTotals(context.Background(), SubmitTotalsInput{
		LeaderID: 1, ServiceType: "sunday", ServiceDate: "2024-03-10", Tally: fullTally(), Notes: "Easter prep",
	}, deps)
	if err != nil {
		t.Fatalf("ExecuteSubmitTotals: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}
	r := records.created[0]
	if r.SundayAttendance != 50 || r.SundayVisitors != 5 {
		t.Errorf("sunday metrics = %d/%d", r.SundayAttendance, r.SundayVisitors)
	}
	if r.CellAttendance != 0 || !r.CellOffering.IsZero() || r.CellDecisions != 0 {
		t.Errorf("cell half not zero: %+v", r)
	}
	if !r.SubmittedAt.Equal(testTime) || r.Notes != "Easter prep" {
		t.Errorf("record = %+v", r)
	}
	if got := testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues("sunday")); got != before+1 {
		t.Errorf("submissions counter = %v, want %v", got, before+1)
	}

	if _, err := ExecuteSubmitTotals(context.Background(), SubmitTotalsInput{
		LeaderID: 1, ServiceType: "cell", ServiceDate: "2024-03-12", Tally: fullTally(),
	}, deps); err != nil {
		t.Fatal(err)
	}
	c := records.created[1]
	if c.SundayAttendance != 0 || c.CellAttendance != 20 || !c.CellOffering.Equal(decimal.RequireFromString("150.5")) {
		t.Errorf("cell record = %+v", c)
	}
}

// TestExecuteSubmitTotals_Errors verifies validation and missing leader kinds.
func TestExecuteSubmitTotals_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input SubmitTotalsInput
		kind  apperror.Kind
	}{
		{"missing leader id", SubmitTotalsInput{ServiceType: "cell", ServiceDate: "2024-03-12"}, apperror.KindValidation},
		{"missing type", SubmitTotalsInput{LeaderID: 1, ServiceDate: "2024-03-12"}, apperror.KindValidation},
		{"bad type", SubmitTotalsInput{LeaderID: 1, ServiceType: "midweek", ServiceDate: "2024-03-12"}, apperror.KindValidation},
		{"missing date", SubmitTotalsInput{LeaderID: 1, ServiceType: "cell"}, apperror.KindValidation},
		{"bad date", SubmitTotalsInput{LeaderID: 1, ServiceType: "cell", ServiceDate: "12/03/2024"}, apperror.KindValidation},
		{"unknown leader", SubmitTotalsInput{LeaderID: 42, ServiceType: "cell", ServiceDate: "2024-03-12"}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := &mockRecordStore{}
			_, err := ExecuteSubmitTotals(context.Background(), tt.input, SubmitTotalsDeps{
				LeaderStore: newMockLeaderStore(existingLeader(1, "")), RecordStore: records, Now: testNow,
			})
			if !apperror.Is(err, tt.kind) {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
			if len(records.created) != 0 {
				t.Error("record stored despite error")
			}
		})
	}
}
