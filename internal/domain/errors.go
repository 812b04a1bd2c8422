package domain

import (
	"errors"
	"fmt"
)

// Rejection kinds. They are expected outcomes of a booking request and are
// surfaced to the caller as-is.
var (
	ErrInvalidSlot = errors.New("invalid slot")
	ErrConflict    = errors.New("slot unavailable")
	ErrExpired     = errors.New("confirmation window expired")
	ErrNotFound    = errors.New("reservation not found")
	ErrBlocked     = errors.New("reservation refused")

	ErrInvalidTransition = errors.New("invalid status transition")
)

// RejectionError carries a human readable reason next to its kind.
type RejectionError struct {
	Kind   error
	Reason string
}

func Reject(kind error, format string, args ...any) *RejectionError {
	return &RejectionError{
		Kind:   kind,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *RejectionError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Reason
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}

// ReasonOf returns the rejection reason of err, or its message.
func ReasonOf(err error) string {
	var rej *RejectionError
	if errors.As(err, &rej) && rej.Reason != "" {
		return rej.Reason
	}
	return err.Error()
}
