package store

import (
	"math"
	"strings"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/models"

	"github.com/google/uuid"
)

// The functions below apply one lifecycle operation to a booking snapshot
// loaded under its row lock. They never touch storage; the caller persists
// the mutated snapshot in the same transaction.

func transition(b *models.Booking, event Event, now time.Time) error {
	to, err := NextStatus(b.Status, event)
	if err != nil {
		return err
	}
	b.Status = to
	b.UpdatedAt = now
	return nil
}

func Confirm(b *models.Booking, input ConfirmInput) error {
	const op = "confirm booking"
	panchayathID := strings.TrimSpace(input.PanchayathID)
	if panchayathID == "" {
		return Validation(op, "panchayath is required")
	}
	if input.ReportBefore == nil || input.ReportBefore.IsZero() {
		return Validation(op, "report-before time is required")
	}
	count := input.RequiredStaffCount
	if count == 0 {
		count = b.RequiredStaffCount
	}
	if count == 0 {
		count = models.DefaultRequiredStaffCount
	}
	if count < models.MinRequiredStaffCount || count > models.MaxRequiredStaffCount {
		return Validation(op, "required staff count must be between %d and %d", models.MinRequiredStaffCount, models.MaxRequiredStaffCount)
	}
	if err := transition(b, EventConfirm, input.OccurredAt); err != nil {
		return err
	}
	reportBefore := input.ReportBefore.UTC()
	b.PanchayathID = &panchayathID
	b.ReportBefore = &reportBefore
	b.RequiredStaffCount = count
	return nil
}

type AcceptResult struct {
	Changed       bool
	QuorumReached bool
}

// Accept records a staff acceptance and re-evaluates the quorum. eligible
// reports whether the staff member serves the booking's panchayath; it is
// ignored for staff already holding a row from manual assignment.
func Accept(b *models.Booking, staffUserID string, eligible bool, now time.Time) (AcceptResult, error) {
	const op = "accept job"
	if b.PanchayathID == nil {
		return AcceptResult{}, Precondition(op, "booking has no panchayath")
	}

	var result AcceptResult
	idx := assignmentIndex(b, staffUserID)
	switch {
	case idx >= 0 && b.Assignments[idx].Status == models.AssignmentRejected:
		return AcceptResult{}, Conflict(op, "job was already rejected by this staff member")
	case idx >= 0 && b.Assignments[idx].Status == models.AssignmentAccepted:
	case idx >= 0:
		if b.Status != models.StatusConfirmed && b.Status != models.StatusAssigned {
			return AcceptResult{}, Conflict(op, "cannot accept a booking in status %q", b.Status)
		}
		b.Assignments[idx].Status = models.AssignmentAccepted
		result.Changed = true
	default:
		if !eligible {
			return AcceptResult{}, Forbidden(op, "staff member does not serve this booking's panchayath")
		}
		if b.Status == models.StatusAssigned {
			return AcceptResult{}, Conflict(op, "booking already has its required staff")
		}
		if b.Status != models.StatusConfirmed {
			return AcceptResult{}, Conflict(op, "cannot accept a booking in status %q", b.Status)
		}
		b.Assignments = append(b.Assignments, models.StaffAssignment{
			BookingID:   b.BookingID,
			StaffUserID: staffUserID,
			Status:      models.AssignmentAccepted,
			AssignedAt:  now,
		})
		result.Changed = true
	}

	fired, err := EvaluateQuorum(b, now)
	if err != nil {
		return AcceptResult{}, err
	}
	result.QuorumReached = fired
	return result, nil
}

// EvaluateQuorum moves a confirmed booking to assigned once the accepted
// count reaches the required count. Calling it again after it fired is a
// no-op.
func EvaluateQuorum(b *models.Booking, now time.Time) (bool, error) {
	if b.Status != models.StatusConfirmed {
		return false, nil
	}
	if !QuorumReached(len(b.AcceptedStaff()), b.RequiredStaffCount) {
		return false, nil
	}
	if err := transition(b, EventQuorum, now); err != nil {
		return false, err
	}
	return true, nil
}

func QuorumReached(accepted, required int) bool {
	if required < models.MinRequiredStaffCount {
		required = models.MinRequiredStaffCount
	}
	return accepted >= required
}

// Reject records a staff rejection. Rejections never count towards quorum
// and a rejecting staff member is not offered the job again.
func Reject(b *models.Booking, staffUserID string, eligible bool, now time.Time) (bool, error) {
	const op = "reject job"
	if b.PanchayathID == nil {
		return false, Precondition(op, "booking has no panchayath")
	}
	idx := assignmentIndex(b, staffUserID)
	if idx >= 0 {
		switch b.Assignments[idx].Status {
		case models.AssignmentRejected:
			return false, nil
		case models.AssignmentAccepted:
			return false, Conflict(op, "an accepted job cannot be rejected")
		}
		if b.Status != models.StatusConfirmed && b.Status != models.StatusAssigned {
			return false, Conflict(op, "cannot reject a booking in status %q", b.Status)
		}
		b.Assignments[idx].Status = models.AssignmentRejected
		return true, nil
	}
	if !eligible {
		return false, Forbidden(op, "staff member does not serve this booking's panchayath")
	}
	if b.Status != models.StatusConfirmed {
		return false, Conflict(op, "cannot reject a booking in status %q", b.Status)
	}
	b.Assignments = append(b.Assignments, models.StaffAssignment{
		BookingID:   b.BookingID,
		StaffUserID: staffUserID,
		Status:      models.AssignmentRejected,
		AssignedAt:  now,
	})
	return true, nil
}

// Assign replaces the booking's assignment set with staffUserIDs, all
// pending, and forces the booking to assigned regardless of quorum.
// eligible holds the staff serving the booking's panchayath.
func Assign(b *models.Booking, staffUserIDs []string, eligible map[string]bool, now time.Time) error {
	const op = "assign staff"
	ids := NormalizeIDs(staffUserIDs)
	if len(ids) == 0 {
		return Validation(op, "select at least one staff member")
	}
	if b.PanchayathID == nil {
		return Precondition(op, "booking has no panchayath")
	}
	if !ValidTransition(EventAssign, b.Status) {
		return Conflict(op, "cannot assign staff to a booking in status %q", b.Status)
	}
	for _, id := range ids {
		if !eligible[id] {
			return Validation(op, "staff member %s does not serve this booking's panchayath", id)
		}
	}
	if err := transition(b, EventAssign, now); err != nil {
		return err
	}
	assignments := make([]models.StaffAssignment, 0, len(ids))
	for _, id := range ids {
		assignments = append(assignments, models.StaffAssignment{
			BookingID:   b.BookingID,
			StaffUserID: id,
			Status:      models.AssignmentPending,
			AssignedAt:  now,
		})
	}
	b.Assignments = assignments
	return nil
}

func Start(b *models.Booking, staffUserID string, now time.Time) error {
	return staffTransition(b, "start job", EventStart, staffUserID, now)
}

func Complete(b *models.Booking, staffUserID string, now time.Time) error {
	return staffTransition(b, "complete job", EventComplete, staffUserID, now)
}

func staffTransition(b *models.Booking, op string, event Event, staffUserID string, now time.Time) error {
	if !ValidTransition(event, b.Status) {
		return Conflict(op, "cannot %s a booking in status %q", event, b.Status)
	}
	idx := assignmentIndex(b, staffUserID)
	if idx < 0 || b.Assignments[idx].Status != models.AssignmentAccepted {
		return Forbidden(op, "staff member has not accepted this booking")
	}
	return transition(b, event, now)
}

func Cancel(b *models.Booking, actorUserID string, asAdmin bool, now time.Time) error {
	const op = "cancel booking"
	if !asAdmin && b.CustomerUserID != actorUserID {
		return Forbidden(op, "only an admin or the booking's customer can cancel it")
	}
	if !ValidTransition(EventCancel, b.Status) {
		return Conflict(op, "cannot cancel a booking in status %q", b.Status)
	}
	return transition(b, EventCancel, now)
}

// Finalize builds one pending earning per accepted staff member and marks
// the booking finalized. A booking can be finalized once.
func Finalize(b *models.Booking, earningPerStaff, bonusPerStaff float64, now time.Time) ([]models.StaffEarning, error) {
	const op = "finalize booking"
	if math.IsNaN(earningPerStaff) || roundMoney(earningPerStaff) <= 0 {
		return nil, Validation(op, "earning per staff must be greater than zero")
	}
	if math.IsNaN(bonusPerStaff) || bonusPerStaff < 0 {
		return nil, Validation(op, "bonus per staff cannot be negative")
	}
	if !ValidTransition(EventFinalize, b.Status) {
		return nil, Conflict(op, "cannot finalize a booking in status %q", b.Status)
	}
	if b.FinalizedAt != nil {
		return nil, Conflict(op, "booking earnings were already finalized")
	}
	if err := transition(b, EventFinalize, now); err != nil {
		return nil, err
	}
	finalizedAt := now
	b.FinalizedAt = &finalizedAt

	amount := roundMoney(earningPerStaff + bonusPerStaff)
	var earnings []models.StaffEarning
	for _, staffUserID := range b.AcceptedStaff() {
		earnings = append(earnings, models.StaffEarning{
			BookingID:   b.BookingID,
			StaffUserID: staffUserID,
			BaseAmount:  roundMoney(earningPerStaff),
			BonusAmount: roundMoney(bonusPerStaff),
			Amount:      amount,
			Status:      models.EarningPending,
			CreatedAt:   now,
		})
	}
	return earnings, nil
}

// NormalizeIDs trims ids, rewrites UUIDs in canonical lowercase form and
// drops blanks and duplicates, keeping order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if parsed, err := uuid.Parse(id); err == nil {
			id = parsed.String()
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func assignmentIndex(b *models.Booking, staffUserID string) int {
	for i, a := range b.Assignments {
		if a.StaffUserID == staffUserID {
			return i
		}
	}
	return -1
}

func roundMoney(value float64) float64 {
	return math.Round(value*100) / 100
}
