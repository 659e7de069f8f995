package taskledger

import (
	"errors"
)

var (
	// ErrPermissionDenied is returned when the caller lacks the capability an operation requires.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound is returned for unknown project or task ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when operating on a completed project or task.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidInput is returned when an argument fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientFunds is returned when attached funds are below what is owed.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

var reasons = []struct {
	err    error
	reason string
}{
	{ErrPermissionDenied, "permission-denied"},
	{ErrNotFound, "not-found"},
	{ErrInvalidState, "invalid-state"},
	{ErrInvalidInput, "invalid-input"},
	{ErrInsufficientFunds, "insufficient-funds"},
}

// Reason maps an error to a stable machine readable prefix suitable for sending to clients.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "error"
}
