package statsqueries_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fieldops/movelog/internal/app/store/queries/statsqueries"
	"github.com/fieldops/movelog/internal/app/system/roles"
)

func TestPerformancePercentage(t *testing.T) {
	cases := []struct {
		name               string
		approved, rejected int64
		want               int
	}{
		{"nothing decided defaults to 100", 0, 0, 100},
		{"three of four approved", 3, 1, 75},
		{"all approved", 5, 0, 100},
		{"all rejected", 0, 5, 0},
		{"rounds to nearest", 1, 2, 33},
		{"rounds up", 2, 1, 67},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := statsqueries.PerformancePercentage(tc.approved, tc.rejected)
			if got != tc.want {
				t.Errorf("PerformancePercentage(%d, %d) = %d, want %d",
					tc.approved, tc.rejected, got, tc.want)
			}
		})
	}
}

func TestScopeFilter_Admin(t *testing.T) {
	s := statsqueries.Scope{UserID: primitive.NewObjectID(), Role: roles.SystemAdministrator}
	if got := s.Filter(); len(got) != 0 {
		t.Errorf("admin scope should be unfiltered, got %v", got)
	}
}

func TestScopeFilter_FieldEngineer(t *testing.T) {
	id := primitive.NewObjectID()
	s := statsqueries.Scope{UserID: id, Role: roles.FieldEngineer}
	got := s.Filter()
	if got["staff_id"] != id {
		t.Errorf("field engineer scope should filter on own staff_id, got %v", got)
	}
}

func TestScopeFilter_Supervisor(t *testing.T) {
	id := primitive.NewObjectID()
	report := primitive.NewObjectID()
	s := statsqueries.Scope{
		UserID:        id,
		Role:          roles.SeniorFieldEngineer,
		DirectReports: []primitive.ObjectID{report},
	}
	got := s.Filter()
	or, ok := got["$or"].([]bson.M)
	if !ok {
		t.Fatalf("supervisor scope should be an $or, got %v", got)
	}
	if len(or) != 3 {
		t.Errorf("expected 3 clauses (assignee, approver, direct reports), got %d", len(or))
	}
}

func TestScopeFilter_SupervisorWithoutReports(t *testing.T) {
	s := statsqueries.Scope{UserID: primitive.NewObjectID(), Role: roles.NetworkEngineerFieldOps}
	or, ok := s.Filter()["$or"].([]bson.M)
	if !ok {
		t.Fatalf("supervisor scope should be an $or")
	}
	if len(or) != 2 {
		t.Errorf("expected 2 clauses without direct reports, got %d", len(or))
	}
}

func TestFillTrend_Daily(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	raw := []statsqueries.TrendPoint{
		{Date: "2024-03-08", Count: 4},
		{Date: "2024-03-10", Count: 1},
	}

	got := statsqueries.FillTrend(raw, statsqueries.TimeframeDaily, now)
	if len(got) != 7 {
		t.Fatalf("expected 7 daily buckets, got %d", len(got))
	}
	if got[0].Date != "2024-03-04" || got[6].Date != "2024-03-10" {
		t.Errorf("window should span 2024-03-04..2024-03-10, got %s..%s",
			got[0].Date, got[6].Date)
	}
	for _, p := range got {
		switch p.Date {
		case "2024-03-08":
			if p.Count != 4 {
				t.Errorf("2024-03-08 count = %d, want 4", p.Count)
			}
		case "2024-03-10":
			if p.Count != 1 {
				t.Errorf("2024-03-10 count = %d, want 1", p.Count)
			}
		default:
			if p.Count != 0 {
				t.Errorf("%s count = %d, want 0 backfill", p.Date, p.Count)
			}
		}
	}
}

func TestFillTrend_DailyAllEmpty(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	got := statsqueries.FillTrend(nil, statsqueries.TimeframeDaily, now)
	if len(got) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(got))
	}
	for _, p := range got {
		if p.Count != 0 {
			t.Errorf("%s count = %d, want 0", p.Date, p.Count)
		}
	}
}

func TestFillTrend_MonthCrossesYear(t *testing.T) {
	now := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	got := statsqueries.FillTrend(nil, statsqueries.TimeframeMonth, now)
	if len(got) != 12 {
		t.Fatalf("expected 12 monthly buckets, got %d", len(got))
	}
	if got[0].Date != "2023-03" {
		t.Errorf("first bucket = %s, want 2023-03", got[0].Date)
	}
	if got[11].Date != "2024-02" {
		t.Errorf("last bucket = %s, want 2024-02", got[11].Date)
	}
}

func TestFillTrend_Year(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	raw := []statsqueries.TrendPoint{{Date: "2022", Count: 9}}
	got := statsqueries.FillTrend(raw, statsqueries.TimeframeYear, now)
	if len(got) != 5 {
		t.Fatalf("expected 5 yearly buckets, got %d", len(got))
	}
	if got[0].Date != "2020" || got[4].Date != "2024" {
		t.Errorf("window should span 2020..2024, got %s..%s", got[0].Date, got[4].Date)
	}
	if got[2].Count != 9 {
		t.Errorf("2022 count = %d, want 9", got[2].Count)
	}
}
