package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/models"
	"github.com/evamarketing/hand-rest-6/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

func (s *Store) CreateBooking(ctx context.Context, input store.CreateBookingInput) (booking models.Booking, err error) {
	const op = "create booking"
	ctx, span := s.startSpan(ctx, "CreateBooking", attribute.String("customer.id", input.CustomerUserID))
	defer func() { endSpan(span, err) }()

	input, err = store.ValidateCreate(input)
	if err != nil {
		return models.Booking{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Booking{}, wrapErr(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	pkg, err := loadActivePackage(ctx, tx, input.PackageID)
	if err != nil {
		return models.Booking{}, err
	}
	addons, err := loadActiveAddons(ctx, tx, input.AddonIDs)
	if err != nil {
		return models.Booking{}, err
	}
	features, err := loadActiveFeatures(ctx, tx, input.CustomFeatureIDs)
	if err != nil {
		return models.Booking{}, err
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	booking = models.Booking{
		BookingID:          uuid.NewString(),
		CustomerUserID:     input.CustomerUserID,
		CustomerName:       input.CustomerName,
		CustomerPhone:      input.CustomerPhone,
		CustomerEmail:      input.CustomerEmail,
		AddressLine1:       input.AddressLine1,
		City:               input.City,
		PackageID:          pkg.PackageID,
		AddonIDs:           input.AddonIDs,
		CustomFeatureIDs:   input.CustomFeatureIDs,
		ScheduledDate:      input.ScheduledDate,
		ScheduledTime:      input.ScheduledTime,
		RequiredStaffCount: models.DefaultRequiredStaffCount,
		Status:             models.StatusPending,
		TotalPrice:         store.TotalPrice(pkg, addons, features),
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO bookings (
			booking_id, customer_user_id, customer_name, customer_phone, customer_email,
			address_line1, city, package_id, addon_ids, custom_feature_ids,
			scheduled_date, scheduled_time, required_staff_count, status, total_price, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::text[]::uuid[],$10::text[]::uuid[],$11::text::date,$12,$13,$14,$15,$16,$16)
		RETURNING booking_number
	`, booking.BookingID, booking.CustomerUserID, booking.CustomerName, booking.CustomerPhone, nullIfEmpty(booking.CustomerEmail),
		booking.AddressLine1, booking.City, booking.PackageID, nonNilIDs(booking.AddonIDs), nonNilIDs(booking.CustomFeatureIDs),
		booking.ScheduledDate, booking.ScheduledTime, booking.RequiredStaffCount, booking.Status, booking.TotalPrice, createdAt)
	if err = row.Scan(&booking.BookingNumber); err != nil {
		return models.Booking{}, wrapErr(op, err)
	}

	if err = insertBookingEvent(ctx, tx, booking.BookingID, booking.CustomerUserID, bookingEvent{
		Type:     "booking.created",
		ToStatus: booking.Status,
		Payload:  map[string]interface{}{"total_price": booking.TotalPrice, "booking_number": booking.BookingNumber},
	}, createdAt); err != nil {
		return models.Booking{}, wrapErr(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Booking{}, wrapErr(op, err)
	}
	return booking, nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (booking models.Booking, err error) {
	const op = "get booking"
	ctx, span := s.startSpan(ctx, "GetBooking", attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	row := s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.booking_id = $1`, bookingID)
	booking, err = scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Booking{}, store.NotFound(op, "booking %s not found", bookingID)
		}
		return models.Booking{}, wrapErr(op, err)
	}
	booking.Assignments, err = loadAssignments(ctx, s.pool, bookingID)
	if err != nil {
		return models.Booking{}, wrapErr(op, err)
	}
	return booking, nil
}

func (s *Store) ListBookings(ctx context.Context, filter store.ListBookingsFilter) (bookings []models.Booking, err error) {
	const op = "list bookings"
	ctx, span := s.startSpan(ctx, "ListBookings", attribute.String("booking.status", filter.Status))
	defer func() { endSpan(span, err) }()

	query := `SELECT ` + bookingColumns + ` FROM bookings b`
	args := []interface{}{}
	if filter.Status != "" {
		if !store.KnownStatus(filter.Status) {
			return nil, store.Validation(op, "unknown booking status %q", filter.Status)
		}
		query += " WHERE b.status = $1"
		args = append(args, filter.Status)
	}
	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY b.created_at DESC LIMIT $%d", len(args))

	bookings, err = queryBookings(ctx, s.pool, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return bookings, nil
}

func (s *Store) ListBookingEvents(ctx context.Context, bookingID string) (events []models.BookingEvent, err error) {
	const op = "list booking events"
	ctx, span := s.startSpan(ctx, "ListBookingEvents", attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	if err = ensureBookingExists(ctx, s.pool, op, bookingID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT event_id, booking_id, type, actor_user_id::text, from_status, to_status, payload, created_at
		FROM booking_events
		WHERE booking_id = $1
		ORDER BY created_at ASC, event_id ASC
	`, bookingID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var event models.BookingEvent
		var actorNull, fromNull, toNull sql.NullString
		var payload []byte
		if err = rows.Scan(&event.EventID, &event.BookingID, &event.Type, &actorNull, &fromNull, &toNull, &payload, &event.CreatedAt); err != nil {
			return nil, wrapErr(op, err)
		}
		event.ActorUserID = actorNull.String
		event.FromStatus = fromNull.String
		event.ToStatus = toNull.String
		event.Payload = payload
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return events, nil
}

func (s *Store) ConfirmBooking(ctx context.Context, input store.ConfirmInput) (models.Booking, error) {
	return s.mutateBooking(ctx, "ConfirmBooking", "confirm booking", input.BookingID, input.ActorUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		if input.PanchayathID != "" {
			if err := ensurePanchayathExists(ctx, tx, input.PanchayathID); err != nil {
				return nil, err
			}
		}
		from := b.Status
		input.OccurredAt = occurredAt(input.OccurredAt, now)
		if err := store.Confirm(b, input); err != nil {
			return nil, err
		}
		return []bookingEvent{{
			Type:       "booking.confirmed",
			FromStatus: from,
			ToStatus:   b.Status,
			Payload: map[string]interface{}{
				"panchayath_id":        *b.PanchayathID,
				"report_before":        b.ReportBefore,
				"required_staff_count": b.RequiredStaffCount,
			},
		}}, nil
	})
}

func (s *Store) AssignStaff(ctx context.Context, input store.AssignInput) (models.Booking, error) {
	return s.mutateBooking(ctx, "AssignStaff", "assign staff", input.BookingID, input.ActorUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		ids := store.NormalizeIDs(input.StaffUserIDs)
		eligible := map[string]bool{}
		if b.PanchayathID != nil && len(ids) > 0 {
			var err error
			eligible, err = eligibleStaffSet(ctx, tx, *b.PanchayathID, ids)
			if err != nil {
				return nil, err
			}
		}
		from := b.Status
		if err := store.Assign(b, ids, eligible, occurredAt(input.OccurredAt, now)); err != nil {
			return nil, err
		}
		return []bookingEvent{{
			Type:       "staff.assigned",
			FromStatus: from,
			ToStatus:   b.Status,
			Payload:    map[string]interface{}{"staff_user_ids": ids},
		}}, nil
	})
}

func (s *Store) AcceptJob(ctx context.Context, input store.StaffActionInput) (models.Booking, error) {
	return s.mutateBooking(ctx, "AcceptJob", "accept job", input.BookingID, input.StaffUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		eligible, err := staffServesBooking(ctx, tx, input.StaffUserID, b)
		if err != nil {
			return nil, err
		}
		from := b.Status
		result, err := store.Accept(b, input.StaffUserID, eligible, occurredAt(input.OccurredAt, now))
		if err != nil {
			return nil, err
		}
		if !result.Changed {
			return nil, nil
		}
		events := []bookingEvent{{
			Type:    "job.accepted",
			Payload: map[string]interface{}{"staff_user_id": input.StaffUserID, "accepted": len(b.AcceptedStaff()), "required": b.RequiredStaffCount},
		}}
		if result.QuorumReached {
			events = append(events, bookingEvent{
				Type:       "booking.assigned",
				FromStatus: from,
				ToStatus:   b.Status,
				Payload:    map[string]interface{}{"accepted_staff": b.AcceptedStaff()},
			})
		}
		return events, nil
	})
}

func (s *Store) RejectJob(ctx context.Context, input store.StaffActionInput) (models.Booking, error) {
	return s.mutateBooking(ctx, "RejectJob", "reject job", input.BookingID, input.StaffUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		eligible, err := staffServesBooking(ctx, tx, input.StaffUserID, b)
		if err != nil {
			return nil, err
		}
		changed, err := store.Reject(b, input.StaffUserID, eligible, occurredAt(input.OccurredAt, now))
		if err != nil || !changed {
			return nil, err
		}
		return []bookingEvent{{
			Type:    "job.rejected",
			Payload: map[string]interface{}{"staff_user_id": input.StaffUserID},
		}}, nil
	})
}

func (s *Store) StartJob(ctx context.Context, input store.StaffActionInput) (models.Booking, error) {
	return s.mutateBooking(ctx, "StartJob", "start job", input.BookingID, input.StaffUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		from := b.Status
		if err := store.Start(b, input.StaffUserID, occurredAt(input.OccurredAt, now)); err != nil {
			return nil, err
		}
		return []bookingEvent{{Type: "job.started", FromStatus: from, ToStatus: b.Status}}, nil
	})
}

func (s *Store) CompleteJob(ctx context.Context, input store.StaffActionInput) (models.Booking, error) {
	return s.mutateBooking(ctx, "CompleteJob", "complete job", input.BookingID, input.StaffUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		from := b.Status
		if err := store.Complete(b, input.StaffUserID, occurredAt(input.OccurredAt, now)); err != nil {
			return nil, err
		}
		return []bookingEvent{{Type: "job.completed", FromStatus: from, ToStatus: b.Status}}, nil
	})
}

func (s *Store) CancelBooking(ctx context.Context, input store.CancelInput) (models.Booking, error) {
	return s.mutateBooking(ctx, "CancelBooking", "cancel booking", input.BookingID, input.ActorUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		from := b.Status
		if err := store.Cancel(b, input.ActorUserID, input.AsAdmin, occurredAt(input.OccurredAt, now)); err != nil {
			return nil, err
		}
		return []bookingEvent{{
			Type:       "booking.cancelled",
			FromStatus: from,
			ToStatus:   b.Status,
			Payload:    map[string]interface{}{"by_admin": input.AsAdmin},
		}}, nil
	})
}

func (s *Store) FinalizeBooking(ctx context.Context, input store.FinalizeInput) (store.FinalizeResult, error) {
	var earnings []models.StaffEarning
	booking, err := s.mutateBooking(ctx, "FinalizeBooking", "finalize booking", input.BookingID, input.ActorUserID, func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error) {
		var err error
		earnings, err = store.Finalize(b, input.EarningPerStaff, input.BonusPerStaff, occurredAt(input.OccurredAt, now))
		if err != nil {
			return nil, err
		}
		for i := range earnings {
			earnings[i].EarningID = uuid.NewString()
			if err := insertEarning(ctx, tx, earnings[i]); err != nil {
				return nil, err
			}
		}
		return []bookingEvent{{
			Type: "booking.finalized",
			Payload: map[string]interface{}{
				"earning_per_staff": input.EarningPerStaff,
				"bonus_per_staff":   input.BonusPerStaff,
				"staff_count":       len(earnings),
			},
		}}, nil
	})
	if err != nil {
		return store.FinalizeResult{}, err
	}
	if earnings == nil {
		earnings = []models.StaffEarning{}
	}
	return store.FinalizeResult{Booking: booking, Earnings: earnings}, nil
}

func (s *Store) ListEligibleStaff(ctx context.Context, bookingID string) (staff []models.StaffMember, err error) {
	const op = "list eligible staff"
	ctx, span := s.startSpan(ctx, "ListEligibleStaff", attribute.String("booking.id", bookingID))
	defer func() { endSpan(span, err) }()

	var panchayathNull sql.NullString
	row := s.pool.QueryRow(ctx, `SELECT panchayath_id::text FROM bookings WHERE booking_id = $1`, bookingID)
	if err = row.Scan(&panchayathNull); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.NotFound(op, "booking %s not found", bookingID)
		}
		return nil, wrapErr(op, err)
	}
	if !panchayathNull.Valid {
		return nil, store.Precondition(op, "booking has no panchayath")
	}

	rows, err := s.pool.Query(ctx, `
		SELECT spa.staff_user_id::text, COALESCE(p.full_name, ''), COALESCE(p.phone, ''), spa.panchayath_id::text, spa.ward_numbers
		FROM staff_panchayath_assignments spa
		JOIN user_roles ur ON ur.user_id = spa.staff_user_id AND ur.role = 'staff'
		LEFT JOIN profiles p ON p.user_id = spa.staff_user_id
		WHERE spa.panchayath_id = $1
		ORDER BY p.full_name ASC NULLS LAST, spa.staff_user_id ASC
	`, panchayathNull.String)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	staff = []models.StaffMember{}
	for rows.Next() {
		var member models.StaffMember
		if err = rows.Scan(&member.UserID, &member.FullName, &member.Phone, &member.PanchayathID, &member.WardNumbers); err != nil {
			return nil, wrapErr(op, err)
		}
		staff = append(staff, member)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return staff, nil
}

// ListStaffJobs returns the bookings a staff member holds an assignment row
// for, followed by confirmed bookings open in their panchayaths. Cancelled
// bookings drop out of both lists.
func (s *Store) ListStaffJobs(ctx context.Context, staffUserID string) (jobs []models.StaffJob, err error) {
	const op = "list staff jobs"
	ctx, span := s.startSpan(ctx, "ListStaffJobs", attribute.String("staff.id", staffUserID))
	defer func() { endSpan(span, err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT `+bookingColumns+`, a.status
		FROM booking_staff_assignments a
		JOIN bookings b ON b.booking_id = a.booking_id
		WHERE a.staff_user_id = $1 AND b.status <> $2
		ORDER BY b.scheduled_date ASC, b.created_at ASC
	`, staffUserID, models.StatusCancelled)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	jobs = []models.StaffJob{}
	for rows.Next() {
		var assignmentStatus string
		booking, scanErr := scanBooking(assignmentRow{rows: rows, extra: &assignmentStatus})
		if scanErr != nil {
			rows.Close()
			return nil, wrapErr(op, scanErr)
		}
		jobs = append(jobs, models.StaffJob{Booking: booking, AssignmentStatus: assignmentStatus})
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}

	open, err := queryBookings(ctx, s.pool, `
		SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.status = $1
		  AND b.panchayath_id IN (
			SELECT panchayath_id FROM staff_panchayath_assignments WHERE staff_user_id = $2
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM booking_staff_assignments a
			WHERE a.booking_id = b.booking_id AND a.staff_user_id = $2
		  )
		ORDER BY b.report_before ASC NULLS LAST, b.created_at ASC
	`, models.StatusConfirmed, staffUserID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	for _, booking := range open {
		jobs = append(jobs, models.StaffJob{Booking: booking, Open: true})
	}
	return jobs, nil
}

func (s *Store) ListStaffEarnings(ctx context.Context, staffUserID string) (earnings []models.StaffEarning, err error) {
	const op = "list staff earnings"
	ctx, span := s.startSpan(ctx, "ListStaffEarnings", attribute.String("staff.id", staffUserID))
	defer func() { endSpan(span, err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT earning_id, booking_id, staff_user_id, base_amount::float8, bonus_amount::float8, amount::float8, status, created_at
		FROM staff_earnings
		WHERE staff_user_id = $1
		ORDER BY created_at DESC
	`, staffUserID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	earnings = []models.StaffEarning{}
	for rows.Next() {
		var e models.StaffEarning
		if err = rows.Scan(&e.EarningID, &e.BookingID, &e.StaffUserID, &e.BaseAmount, &e.BonusAmount, &e.Amount, &e.Status, &e.CreatedAt); err != nil {
			return nil, wrapErr(op, err)
		}
		earnings = append(earnings, e)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return earnings, nil
}

type mutateFunc func(ctx context.Context, tx pgx.Tx, b *models.Booking, now time.Time) ([]bookingEvent, error)

// mutateBooking runs apply against the booking under its row lock and
// persists the result in the same transaction. Every lifecycle operation
// goes through here, so operations on one booking serialize. When apply
// returns no events nothing is written.
func (s *Store) mutateBooking(ctx context.Context, spanName, op, bookingID, actorUserID string, apply mutateFunc) (booking models.Booking, err error) {
	ctx, span := s.startSpan(ctx, spanName, attribute.String("booking.id", bookingID), attribute.String("actor.id", actorUserID))
	defer func() { endSpan(span, err) }()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Booking{}, wrapErr(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	booking, err = lockBooking(ctx, tx, op, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	before := append([]models.StaffAssignment(nil), booking.Assignments...)
	now := s.now()

	events, err := apply(ctx, tx, &booking, now)
	if err != nil {
		return models.Booking{}, wrapErr(op, err)
	}

	if len(events) > 0 {
		if err = saveBooking(ctx, tx, booking); err != nil {
			return models.Booking{}, wrapErr(op, err)
		}
		if err = syncAssignments(ctx, tx, booking.BookingID, before, booking.Assignments); err != nil {
			return models.Booking{}, wrapErr(op, err)
		}
		for _, event := range events {
			if err = insertBookingEvent(ctx, tx, booking.BookingID, actorUserID, event, now); err != nil {
				return models.Booking{}, wrapErr(op, err)
			}
		}
		span.SetAttributes(attribute.String("booking.status", booking.Status))
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Booking{}, wrapErr(op, err)
	}
	return booking, nil
}

func lockBooking(ctx context.Context, tx pgx.Tx, op, bookingID string) (models.Booking, error) {
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b WHERE b.booking_id = $1 FOR UPDATE`, bookingID)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Booking{}, store.NotFound(op, "booking %s not found", bookingID)
		}
		return models.Booking{}, wrapErr(op, err)
	}
	booking.Assignments, err = loadAssignments(ctx, tx, bookingID)
	if err != nil {
		return models.Booking{}, wrapErr(op, err)
	}
	return booking, nil
}

func saveBooking(ctx context.Context, tx pgx.Tx, b models.Booking) error {
	_, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2, panchayath_id = $3, report_before = $4, required_staff_count = $5,
		    finalized_at = $6, updated_at = $7
		WHERE booking_id = $1
	`, b.BookingID, b.Status, b.PanchayathID, b.ReportBefore, b.RequiredStaffCount, b.FinalizedAt, b.UpdatedAt)
	return err
}

// syncAssignments writes the difference between the assignment set loaded
// under the lock and the mutated one.
func syncAssignments(ctx context.Context, tx pgx.Tx, bookingID string, before, after []models.StaffAssignment) error {
	keep := make(map[string]models.StaffAssignment, len(after))
	for _, a := range after {
		keep[a.StaffUserID] = a
	}
	var removed []string
	for _, a := range before {
		if _, ok := keep[a.StaffUserID]; !ok {
			removed = append(removed, a.StaffUserID)
		}
	}
	if len(removed) > 0 {
		if _, err := tx.Exec(ctx, `
			DELETE FROM booking_staff_assignments
			WHERE booking_id = $1 AND staff_user_id = ANY($2::text[]::uuid[])
		`, bookingID, removed); err != nil {
			return err
		}
	}

	previous := make(map[string]models.StaffAssignment, len(before))
	for _, a := range before {
		previous[a.StaffUserID] = a
	}
	for _, a := range after {
		if old, ok := previous[a.StaffUserID]; ok && old.Status == a.Status && old.AssignedAt.Equal(a.AssignedAt) {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO booking_staff_assignments (booking_id, staff_user_id, status, assigned_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (booking_id, staff_user_id)
			DO UPDATE SET status = EXCLUDED.status, assigned_at = EXCLUDED.assigned_at
		`, bookingID, a.StaffUserID, a.Status, a.AssignedAt); err != nil {
			return err
		}
	}
	return nil
}

func insertEarning(ctx context.Context, tx pgx.Tx, e models.StaffEarning) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO staff_earnings (earning_id, booking_id, staff_user_id, base_amount, bonus_amount, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.EarningID, e.BookingID, e.StaffUserID, e.BaseAmount, e.BonusAmount, e.Amount, e.Status, e.CreatedAt)
	return err
}

// staffServesBooking reports whether the staff member is registered for the
// booking's panchayath. Bookings without a panchayath serve nobody.
func staffServesBooking(ctx context.Context, tx pgx.Tx, staffUserID string, b *models.Booking) (bool, error) {
	if b.PanchayathID == nil {
		return false, nil
	}
	set, err := eligibleStaffSet(ctx, tx, *b.PanchayathID, []string{staffUserID})
	if err != nil {
		return false, err
	}
	return set[staffUserID], nil
}

func eligibleStaffSet(ctx context.Context, tx pgx.Tx, panchayathID string, staffUserIDs []string) (map[string]bool, error) {
	ids := make([]string, 0, len(staffUserIDs))
	for _, id := range staffUserIDs {
		if _, err := uuid.Parse(id); err == nil {
			ids = append(ids, id)
		}
	}
	eligible := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return eligible, nil
	}
	rows, err := tx.Query(ctx, `
		SELECT spa.staff_user_id::text
		FROM staff_panchayath_assignments spa
		JOIN user_roles ur ON ur.user_id = spa.staff_user_id AND ur.role = 'staff'
		WHERE spa.panchayath_id = $1 AND spa.staff_user_id = ANY($2::text[]::uuid[])
	`, panchayathID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		eligible[id] = true
	}
	return eligible, rows.Err()
}

func ensureBookingExists(ctx context.Context, q pgxQuerier, op, bookingID string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_id = $1)`, bookingID).Scan(&exists); err != nil {
		return wrapErr(op, err)
	}
	if !exists {
		return store.NotFound(op, "booking %s not found", bookingID)
	}
	return nil
}

func ensurePanchayathExists(ctx context.Context, tx pgx.Tx, panchayathID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM panchayaths WHERE panchayath_id = $1)`, panchayathID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.Validation("confirm booking", "panchayath %s does not exist", panchayathID)
	}
	return nil
}

// assignmentRow scans the booking columns followed by one extra column.
type assignmentRow struct {
	rows  pgx.Rows
	extra *string
}

func (r assignmentRow) Scan(dest ...interface{}) error {
	return r.rows.Scan(append(dest, r.extra)...)
}

func occurredAt(value, fallback time.Time) time.Time {
	if value.IsZero() {
		return fallback
	}
	return value.UTC()
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
