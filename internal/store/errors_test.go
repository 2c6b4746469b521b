package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypedErrors(t *testing.T) {
	err := Precondition("assign staff", "booking has no panchayath")
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition kind")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("unexpected conflict kind")
	}
	if got := err.Error(); got != "assign staff: booking has no panchayath" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(err); got != "booking has no panchayath" {
		t.Fatalf("unexpected caller message %q", got)
	}
}

func TestStorageWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("get booking", cause)
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected storage error wrapping cause, got %v", err)
	}

	typed := Conflict("confirm", "nope")
	if got := Storage("confirm booking", fmt.Errorf("tx: %w", typed)); !errors.Is(got, ErrConflict) || errors.Is(got, ErrStorage) {
		t.Fatalf("typed error should pass through, got %v", got)
	}
	if Storage("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
