package store

import (
	"errors"
	"testing"
	"time"

	"github.com/evamarketing/hand-rest-6/internal/models"
)

var now = time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

func pendingBooking() models.Booking {
	return models.Booking{
		BookingID:          "b-1",
		CustomerUserID:     "cust-1",
		Status:             models.StatusPending,
		RequiredStaffCount: 2,
		TotalPrice:         1500,
	}
}

func confirmedBooking(t *testing.T, required int) models.Booking {
	t.Helper()
	b := pendingBooking()
	reportBefore := now.Add(24 * time.Hour)
	if err := Confirm(&b, ConfirmInput{PanchayathID: "p-1", ReportBefore: &reportBefore, RequiredStaffCount: required, OccurredAt: now}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return b
}

func TestConfirm(t *testing.T) {
	b := confirmedBooking(t, 3)
	if b.Status != models.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", b.Status)
	}
	if b.PanchayathID == nil || *b.PanchayathID != "p-1" {
		t.Fatalf("expected panchayath to be set")
	}
	if b.RequiredStaffCount != 3 {
		t.Fatalf("expected required count 3, got %d", b.RequiredStaffCount)
	}
}

func TestConfirmDefaultsRequiredCount(t *testing.T) {
	b := confirmedBooking(t, 0)
	if b.RequiredStaffCount != models.DefaultRequiredStaffCount {
		t.Fatalf("expected default count, got %d", b.RequiredStaffCount)
	}
}

func TestConfirmValidation(t *testing.T) {
	reportBefore := now.Add(time.Hour)
	cases := []struct {
		name  string
		input ConfirmInput
	}{
		{"missing panchayath", ConfirmInput{ReportBefore: &reportBefore}},
		{"blank panchayath", ConfirmInput{PanchayathID: "  ", ReportBefore: &reportBefore}},
		{"missing deadline", ConfirmInput{PanchayathID: "p-1"}},
		{"count too high", ConfirmInput{PanchayathID: "p-1", ReportBefore: &reportBefore, RequiredStaffCount: 11}},
		{"count negative", ConfirmInput{PanchayathID: "p-1", ReportBefore: &reportBefore, RequiredStaffCount: -1}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			b := pendingBooking()
			err := Confirm(&b, tt.input)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if b.Status != models.StatusPending || b.PanchayathID != nil {
				t.Fatalf("booking mutated on failure: %+v", b)
			}
		})
	}
}

func TestConfirmRequiresPending(t *testing.T) {
	b := confirmedBooking(t, 2)
	reportBefore := now.Add(time.Hour)
	err := Confirm(&b, ConfirmInput{PanchayathID: "p-2", ReportBefore: &reportBefore})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if *b.PanchayathID != "p-1" {
		t.Fatalf("panchayath changed on failed confirm")
	}
}

func TestQuorumScenario(t *testing.T) {
	b := confirmedBooking(t, 2)

	res, err := Accept(&b, "staff-x", true, now)
	if err != nil {
		t.Fatalf("accept x: %v", err)
	}
	if res.QuorumReached || b.Status != models.StatusConfirmed {
		t.Fatalf("quorum fired after one accept: status=%s", b.Status)
	}

	res, err = Accept(&b, "staff-y", true, now)
	if err != nil {
		t.Fatalf("accept y: %v", err)
	}
	if !res.QuorumReached || b.Status != models.StatusAssigned {
		t.Fatalf("expected assigned after second accept, got %s", b.Status)
	}

	_, err = Accept(&b, "staff-z", true, now)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected over-quorum accept to conflict, got %v", err)
	}
	if len(b.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(b.Assignments))
	}
	if b.TotalPrice != 1500 {
		t.Fatalf("total price changed: %v", b.TotalPrice)
	}
}

func TestEvaluateQuorumIsIdempotent(t *testing.T) {
	b := confirmedBooking(t, 1)
	if _, err := Accept(&b, "staff-x", true, now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if b.Status != models.StatusAssigned {
		t.Fatalf("expected assigned, got %s", b.Status)
	}
	fired, err := EvaluateQuorum(&b, now)
	if err != nil || fired {
		t.Fatalf("re-evaluation fired again: fired=%v err=%v", fired, err)
	}
	res, err := Accept(&b, "staff-x", true, now)
	if err != nil {
		t.Fatalf("repeat accept: %v", err)
	}
	if res.Changed || res.QuorumReached {
		t.Fatalf("repeat accept reported change: %+v", res)
	}
}

func TestRejectDoesNotCountAndBlocksAccept(t *testing.T) {
	b := confirmedBooking(t, 1)
	changed, err := Reject(&b, "staff-x", true, now)
	if err != nil || !changed {
		t.Fatalf("reject: changed=%v err=%v", changed, err)
	}
	if b.Status != models.StatusConfirmed {
		t.Fatalf("reject changed status to %s", b.Status)
	}
	if _, err := Accept(&b, "staff-x", true, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected rejected staff to be refused, got %v", err)
	}
	if _, err := Accept(&b, "staff-y", true, now); err != nil {
		t.Fatalf("accept y: %v", err)
	}
	if b.Status != models.StatusAssigned {
		t.Fatalf("expected assigned, got %s", b.Status)
	}
}

func TestAcceptRequiresEligibility(t *testing.T) {
	b := confirmedBooking(t, 2)
	if _, err := Accept(&b, "outsider", false, now); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, err := Reject(&b, "outsider", false, now); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestAcceptPendingBooking(t *testing.T) {
	b := pendingBooking()
	if _, err := Accept(&b, "staff-x", true, now); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestManualAssignReplacesAndForces(t *testing.T) {
	b := confirmedBooking(t, 3)
	if _, err := Accept(&b, "old-staff", true, now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	eligible := map[string]bool{"s1": true, "s2": true, "old-staff": true}
	if err := Assign(&b, []string{"s1", "s2", "s1"}, eligible, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if b.Status != models.StatusAssigned {
		t.Fatalf("expected assigned, got %s", b.Status)
	}
	if len(b.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(b.Assignments))
	}
	for _, a := range b.Assignments {
		if a.StaffUserID == "old-staff" {
			t.Fatalf("old staff kept after replace")
		}
		if a.Status != models.AssignmentPending {
			t.Fatalf("expected pending, got %s", a.Status)
		}
	}

	// pending holders can still accept after the forced transition
	res, err := Accept(&b, "s1", false, now)
	if err != nil || !res.Changed {
		t.Fatalf("accept after manual assign: %+v err=%v", res, err)
	}
	if err := Start(&b, "s1", now); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestManualAssignErrors(t *testing.T) {
	eligible := map[string]bool{"s1": true}

	b := confirmedBooking(t, 2)
	if err := Assign(&b, []string{" ", ""}, eligible, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty selection, got %v", err)
	}

	p := pendingBooking()
	if err := Assign(&p, []string{"s1"}, eligible, now); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}

	if err := Assign(&b, []string{"s1", "stranger"}, eligible, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for ineligible staff, got %v", err)
	}
	if b.Status != models.StatusConfirmed {
		t.Fatalf("failed assign mutated status to %s", b.Status)
	}

	c := confirmedBooking(t, 1)
	if _, err := Accept(&c, "s1", true, now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := Start(&c, "s1", now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := Assign(&c, []string{"s1"}, eligible, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for in-progress booking, got %v", err)
	}
}

func TestStartAndComplete(t *testing.T) {
	b := confirmedBooking(t, 1)
	if err := Start(&b, "staff-x", now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict before assignment, got %v", err)
	}
	if _, err := Accept(&b, "staff-x", true, now); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := Start(&b, "someone-else", now); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := Complete(&b, "staff-x", now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict completing before start, got %v", err)
	}
	if err := Start(&b, "staff-x", now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := Complete(&b, "staff-x", now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", b.Status)
	}
}

func TestCancel(t *testing.T) {
	b := pendingBooking()
	if err := Cancel(&b, "cust-2", false, now); !errors.Is(err, ErrAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if err := Cancel(&b, "cust-1", false, now); err != nil {
		t.Fatalf("customer cancel: %v", err)
	}
	if b.Status != models.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", b.Status)
	}
	if err := Cancel(&b, "admin", true, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on second cancel, got %v", err)
	}
	reportBefore := now.Add(time.Hour)
	if err := Confirm(&b, ConfirmInput{PanchayathID: "p-1", ReportBefore: &reportBefore}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected cancelled booking to stay cancelled, got %v", err)
	}
}

func completedBooking(t *testing.T, staff ...string) models.Booking {
	t.Helper()
	b := confirmedBooking(t, len(staff))
	for _, id := range staff {
		if _, err := Accept(&b, id, true, now); err != nil {
			t.Fatalf("accept %s: %v", id, err)
		}
	}
	if err := Start(&b, staff[0], now); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := Complete(&b, staff[0], now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	return b
}

func TestFinalizeEarnings(t *testing.T) {
	b := completedBooking(t, "s1", "s2", "s3")
	earnings, err := Finalize(&b, 50, 10, now)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(earnings) != 3 {
		t.Fatalf("expected 3 earnings, got %d", len(earnings))
	}
	for _, e := range earnings {
		if e.Amount != 60 || e.Status != models.EarningPending {
			t.Fatalf("unexpected earning: %+v", e)
		}
	}
	if b.FinalizedAt == nil || b.Status != models.StatusCompleted {
		t.Fatalf("expected finalized completed booking, got %+v", b)
	}
	if _, err := Finalize(&b, 50, 10, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on second finalize, got %v", err)
	}
}

func TestFinalizeValidation(t *testing.T) {
	b := completedBooking(t, "s1")
	if _, err := Finalize(&b, 0, 10, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero earning, got %v", err)
	}
	if _, err := Finalize(&b, 0.004, 10, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for earning that rounds to zero, got %v", err)
	}
	if _, err := Finalize(&b, 10, -1, now); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative bonus, got %v", err)
	}
	if b.FinalizedAt != nil {
		t.Fatalf("failed finalize marked booking")
	}

	c := confirmedBooking(t, 1)
	if _, err := Finalize(&c, 10, 0, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict finalizing confirmed booking, got %v", err)
	}
}

func TestFinalizeWithoutAcceptedStaff(t *testing.T) {
	b := completedBooking(t, "s1")
	b.Assignments[0].Status = models.AssignmentRejected
	earnings, err := Finalize(&b, 25, 0, now)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(earnings) != 0 {
		t.Fatalf("expected no earnings, got %d", len(earnings))
	}
}

func TestNormalizeIDsCanonicalizesUUIDs(t *testing.T) {
	got := NormalizeIDs([]string{
		"AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA",
		" aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa ",
		"s1",
	})
	if len(got) != 2 || got[0] != "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa" || got[1] != "s1" {
		t.Fatalf("unexpected ids: %v", got)
	}
}

func TestManualAssignAcceptsUppercaseUUIDs(t *testing.T) {
	const staffID = "dddddddd-dddd-dddd-dddd-dddddddddddd"
	b := confirmedBooking(t, 1)
	eligible := map[string]bool{staffID: true}
	if err := Assign(&b, []string{"DDDDDDDD-DDDD-DDDD-DDDD-DDDDDDDDDDDD"}, eligible, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(b.Assignments) != 1 || b.Assignments[0].StaffUserID != staffID {
		t.Fatalf("unexpected assignments: %+v", b.Assignments)
	}
}
