package httpapi

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/models"
	"github.com/evamarketing/hand-rest-6/internal/store"
)

func TestDashboardDefaultsWindow(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	var got store.ReportRange
	st := fakeStore{
		summaryFn: func(ctx context.Context, window store.ReportRange) (store.BookingSummary, error) {
			got = window
			summary := store.NewBookingSummary(window)
			summary.ByStatus[models.StatusCompleted] = 2
			summary.TotalBookings = 2
			summary.CompletedRevenue = 2999.5
			return summary, nil
		},
	}
	h := NewHandler(st, Options{Now: func() time.Time { return now }})

	p := admin("dashboard.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/dashboard", nil, &p))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !got.To.Equal(now) || !got.From.Equal(now.Add(-store.DefaultReportWindow)) {
		t.Fatalf("unexpected window: %+v", got)
	}
	var summary store.BookingSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.ByStatus[models.StatusCompleted] != 2 || summary.CompletedRevenue != 2999.5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestDashboardRequiresPermission(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := admin("bookings.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/dashboard", nil, &p))

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestDashboardRejectsInvertedRange(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := admin("dashboard.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/dashboard?from=2026-03-10T00:00:00Z&to=2026-03-01T00:00:00Z", nil, &p))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestDashboardRejectsBadTimestamp(t *testing.T) {
	h := NewHandler(fakeStore{}, Options{})

	p := admin("dashboard.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/dashboard?from=yesterday", nil, &p))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestExportBookingsCSV(t *testing.T) {
	finalized := time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC)
	st := fakeStore{
		exportFn: func(ctx context.Context, window store.ReportRange) ([]models.Booking, error) {
			return []models.Booking{
				{
					BookingNumber:      "HR-000001",
					Status:             models.StatusCompleted,
					CustomerName:       "Asha",
					CustomerPhone:      "9876543210",
					City:               "Kochi",
					ScheduledDate:      "2026-03-10",
					ScheduledTime:      "10:00",
					RequiredStaffCount: 2,
					TotalPrice:         1499.75,
					CreatedAt:          time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
					FinalizedAt:        &finalized,
				},
			}, nil
		},
	}
	h := NewHandler(st, Options{})

	p := admin("bookings.view")
	resp := serve(h, newRequest(t, http.MethodGet, "/api/admin/bookings/export", nil, &p))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	row := records[1]
	if row[0] != "HR-000001" || row[8] != "1499.75" || row[10] != "2026-03-12T18:00:00Z" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestStaffSummaryForCaller(t *testing.T) {
	st := fakeStore{
		staffSummaryFn: func(ctx context.Context, staffUserID string) (store.StaffSummary, error) {
			return store.StaffSummary{StaffUserID: staffUserID, Completed: 3, TotalEarned: 180}, nil
		},
	}
	h := NewHandler(st, Options{})

	p := staff()
	resp := serve(h, newRequest(t, http.MethodGet, "/api/staff/summary", nil, &p))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var summary store.StaffSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.StaffUserID != staffID || summary.Completed != 3 || summary.TotalEarned != 180 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
