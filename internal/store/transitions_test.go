package store

import (
	"errors"
	"testing"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		event Event
		from  string
		valid bool
	}{
		{EventConfirm, "pending", true},
		{EventConfirm, "confirmed", false},
		{EventConfirm, "assigned", false},
		{EventQuorum, "confirmed", true},
		{EventQuorum, "assigned", false},
		{EventQuorum, "pending", false},
		{EventAssign, "confirmed", true},
		{EventAssign, "assigned", true},
		{EventAssign, "pending", false},
		{EventAssign, "in_progress", false},
		{EventStart, "assigned", true},
		{EventStart, "confirmed", false},
		{EventComplete, "in_progress", true},
		{EventComplete, "assigned", false},
		{EventFinalize, "completed", true},
		{EventFinalize, "in_progress", false},
		{EventCancel, "pending", true},
		{EventCancel, "confirmed", true},
		{EventCancel, "assigned", true},
		{EventCancel, "in_progress", true},
		{EventCancel, "completed", false},
		{EventCancel, "cancelled", false},
		{Event("unknown"), "pending", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.event, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.event, tt.from, got, tt.valid)
		}
	}
}

func TestTransitionsNeverMoveBackward(t *testing.T) {
	for event, edges := range transitionTable {
		for from, to := range edges {
			if statusOrder[to] < statusOrder[from] {
				t.Fatalf("event %s moves %s back to %s", event, from, to)
			}
			if IsTerminal(from) && from != to {
				t.Fatalf("event %s leaves terminal status %s", event, from)
			}
		}
	}
}

func TestNextStatusConflict(t *testing.T) {
	if _, err := NextStatus("completed", EventStart); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	to, err := NextStatus("pending", EventConfirm)
	if err != nil || to != "confirmed" {
		t.Fatalf("expected confirmed, got %q err=%v", to, err)
	}
}
