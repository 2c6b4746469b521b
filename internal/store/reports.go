package store

import (
	"context"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/models"
)

const (
	DefaultReportWindow = 30 * 24 * time.Hour
	MaxReportWindow     = 366 * 24 * time.Hour
)

var bookingStatuses = []string{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusAssigned,
	models.StatusInProgress,
	models.StatusCompleted,
	models.StatusCancelled,
}

type ReportRange struct {
	From time.Time
	To   time.Time
}

// BookingSummary aggregates bookings created inside a report range.
type BookingSummary struct {
	From             time.Time      `json:"from"`
	To               time.Time      `json:"to"`
	TotalBookings    int            `json:"total_bookings"`
	ByStatus         map[string]int `json:"by_status"`
	CompletedRevenue float64        `json:"completed_revenue"`
	EarningsTotal    float64        `json:"earnings_total"`
	PendingEarnings  float64        `json:"pending_earnings"`
}

type StaffSummary struct {
	StaffUserID     string  `json:"staff_user_id"`
	Assigned        int     `json:"assigned"`
	InProgress      int     `json:"in_progress"`
	Completed       int     `json:"completed"`
	TotalEarned     float64 `json:"total_earned"`
	PendingEarnings float64 `json:"pending_earnings"`
}

type ReportStore interface {
	SummarizeBookings(ctx context.Context, window ReportRange) (BookingSummary, error)
	ExportBookings(ctx context.Context, window ReportRange) ([]models.Booking, error)
	SummarizeStaff(ctx context.Context, staffUserID string) (StaffSummary, error)
}

// NewReportRange fills a missing bound from the other one (or from now) and
// rejects inverted or oversized windows.
func NewReportRange(from, to *time.Time, now time.Time) (ReportRange, error) {
	const op = "report range"
	window := ReportRange{To: now}
	if to != nil {
		window.To = *to
	}
	window.From = window.To.Add(-DefaultReportWindow)
	if from != nil {
		window.From = *from
	}
	if !window.From.Before(window.To) {
		return ReportRange{}, Validation(op, "from must be before to")
	}
	if window.To.Sub(window.From) > MaxReportWindow {
		return ReportRange{}, Validation(op, "report range must not exceed 366 days")
	}
	return window, nil
}

// NewBookingSummary returns a summary with every known status present.
func NewBookingSummary(window ReportRange) BookingSummary {
	byStatus := make(map[string]int, len(bookingStatuses))
	for _, status := range bookingStatuses {
		byStatus[status] = 0
	}
	return BookingSummary{From: window.From, To: window.To, ByStatus: byStatus}
}
