package store

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrPrecondition  = errors.New("precondition failed")
	ErrConflict      = errors.New("conflict")
	ErrAuthorization = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
	ErrStorage       = errors.New("storage failure")
)

// Error is a typed failure. Kind is one of the sentinel errors above, so
// errors.Is(err, ErrConflict) holds for every conflict regardless of detail.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Precondition(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrPrecondition, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Conflict(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrAuthorization, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a collaborator failure. Typed errors pass through untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: ErrStorage, Op: op, Message: "storage failure", Err: err}
}

// Message returns the caller-facing text of a typed error.
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	return err.Error()
}
