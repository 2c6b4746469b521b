package postgres

import (
	"context"

	"github.com/evamarketing/hand-rest-6/internal/models"
	"github.com/evamarketing/hand-rest-6/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

const maxExportRows = 10000

func (s *Store) SummarizeBookings(ctx context.Context, window store.ReportRange) (summary store.BookingSummary, err error) {
	const op = "summarize bookings"
	ctx, span := s.startSpan(ctx, "SummarizeBookings",
		attribute.String("report.from", window.From.String()),
		attribute.String("report.to", window.To.String()),
	)
	defer func() { endSpan(span, err) }()

	summary = store.NewBookingSummary(window)
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_price), 0)::float8
		FROM bookings
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY status
	`, window.From, window.To)
	if err != nil {
		return store.BookingSummary{}, wrapErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		var revenue float64
		if err = rows.Scan(&status, &count, &revenue); err != nil {
			return store.BookingSummary{}, wrapErr(op, err)
		}
		summary.ByStatus[status] = count
		summary.TotalBookings += count
		if status == models.StatusCompleted {
			summary.CompletedRevenue = revenue
		}
	}
	if err = rows.Err(); err != nil {
		return store.BookingSummary{}, wrapErr(op, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(e.amount), 0)::float8,
			COALESCE(SUM(e.amount) FILTER (WHERE e.status = 'pending'), 0)::float8
		FROM staff_earnings e
		JOIN bookings b ON b.booking_id = e.booking_id
		WHERE b.created_at >= $1 AND b.created_at < $2
	`, window.From, window.To).Scan(&summary.EarningsTotal, &summary.PendingEarnings)
	if err != nil {
		return store.BookingSummary{}, wrapErr(op, err)
	}
	return summary, nil
}

func (s *Store) ExportBookings(ctx context.Context, window store.ReportRange) (bookings []models.Booking, err error) {
	const op = "export bookings"
	ctx, span := s.startSpan(ctx, "ExportBookings")
	defer func() { endSpan(span, err) }()

	bookings, err = queryBookings(ctx, s.pool, `
		SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.created_at >= $1 AND b.created_at < $2
		ORDER BY b.created_at ASC
		LIMIT $3
	`, window.From, window.To, maxExportRows)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return bookings, nil
}

// SummarizeStaff counts the bookings a staff member has accepted by status
// and totals their earnings.
func (s *Store) SummarizeStaff(ctx context.Context, staffUserID string) (summary store.StaffSummary, err error) {
	const op = "summarize staff"
	ctx, span := s.startSpan(ctx, "SummarizeStaff", attribute.String("staff.id", staffUserID))
	defer func() { endSpan(span, err) }()

	summary.StaffUserID = staffUserID
	err = s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE b.status = 'assigned'),
			COUNT(*) FILTER (WHERE b.status = 'in_progress'),
			COUNT(*) FILTER (WHERE b.status = 'completed')
		FROM booking_staff_assignments a
		JOIN bookings b ON b.booking_id = a.booking_id
		WHERE a.staff_user_id = $1 AND a.status = 'accepted'
	`, staffUserID).Scan(&summary.Assigned, &summary.InProgress, &summary.Completed)
	if err != nil {
		return store.StaffSummary{}, wrapErr(op, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)::float8
		FROM staff_earnings
		WHERE staff_user_id = $1
	`, staffUserID).Scan(&summary.TotalEarned, &summary.PendingEarnings)
	if err != nil {
		return store.StaffSummary{}, wrapErr(op, err)
	}
	return summary, nil
}
