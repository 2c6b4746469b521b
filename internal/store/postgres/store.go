package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/models"
	"github.com/evamarketing/hand-rest-6/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "handrest/booking-service/store"

	defaultListLimit = 100
	maxListLimit     = 500

	uniqueViolation = "23505"
)

type Store struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	now    func() time.Time
}

type Options struct {
	// Now overrides the clock used for transition timestamps.
	Now func() time.Time
}

func NewStore(pool *pgxpool.Pool, options Options) *Store {
	now := options.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		pool:   pool,
		tracer: otel.Tracer(tracerName),
		now:    now,
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "store."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// wrapErr converts driver failures into typed store errors. Typed errors
// produced by the lifecycle functions pass through.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.NotFound(op, "record not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.Conflict(op, "duplicate record violates %s", pgErr.ConstraintName)
	}
	return store.Storage(op, err)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const bookingColumns = `
	b.booking_id, b.booking_number, b.customer_user_id, b.customer_name, b.customer_phone, b.customer_email,
	b.address_line1, b.city, b.package_id, b.addon_ids::text[], b.custom_feature_ids::text[],
	b.scheduled_date::text, b.scheduled_time, b.report_before, b.panchayath_id, b.required_staff_count,
	b.status, b.total_price::float8, b.finalized_at, b.created_at, b.updated_at`

func scanBooking(row rowScanner) (models.Booking, error) {
	var booking models.Booking
	var emailNull sql.NullString
	var reportBeforeNull sql.NullTime
	var panchayathNull sql.NullString
	var finalizedAtNull sql.NullTime
	if err := row.Scan(
		&booking.BookingID, &booking.BookingNumber, &booking.CustomerUserID, &booking.CustomerName, &booking.CustomerPhone, &emailNull,
		&booking.AddressLine1, &booking.City, &booking.PackageID, &booking.AddonIDs, &booking.CustomFeatureIDs,
		&booking.ScheduledDate, &booking.ScheduledTime, &reportBeforeNull, &panchayathNull, &booking.RequiredStaffCount,
		&booking.Status, &booking.TotalPrice, &finalizedAtNull, &booking.CreatedAt, &booking.UpdatedAt,
	); err != nil {
		return models.Booking{}, err
	}
	if emailNull.Valid {
		booking.CustomerEmail = emailNull.String
	}
	booking.ReportBefore = nullTimePtr(reportBeforeNull)
	booking.PanchayathID = nullStringPtr(panchayathNull)
	booking.FinalizedAt = nullTimePtr(finalizedAtNull)
	return booking, nil
}

func queryBookings(ctx context.Context, q pgxQuerier, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// pgxQuerier is satisfied by both the pool and a transaction.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func loadAssignments(ctx context.Context, q pgxQuerier, bookingID string) ([]models.StaffAssignment, error) {
	rows, err := q.Query(ctx, `
		SELECT booking_id, staff_user_id, status, assigned_at
		FROM booking_staff_assignments
		WHERE booking_id = $1
		ORDER BY assigned_at ASC, staff_user_id ASC
	`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.StaffAssignment
	for rows.Next() {
		var a models.StaffAssignment
		if err := rows.Scan(&a.BookingID, &a.StaffUserID, &a.Status, &a.AssignedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// bookingEvent is one row destined for booking_events.
type bookingEvent struct {
	Type       string
	FromStatus string
	ToStatus   string
	Payload    interface{}
}

func insertBookingEvent(ctx context.Context, tx pgx.Tx, bookingID, actorUserID string, event bookingEvent, createdAt time.Time) error {
	payload := []byte("{}")
	if event.Payload != nil {
		encoded, err := json.Marshal(event.Payload)
		if err != nil {
			return err
		}
		payload = encoded
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO booking_events (event_id, booking_id, type, actor_user_id, from_status, to_status, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.NewString(), bookingID, event.Type, nullIfEmpty(actorUserID), nullIfEmpty(event.FromStatus), nullIfEmpty(event.ToStatus), payload, createdAt)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
