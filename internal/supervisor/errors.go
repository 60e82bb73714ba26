package supervisor

import (
	"errors"
	"time"
)

var (
	// ErrTimeout indicates that an evaluation exceeded its time budget.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrClosed is returned by every call made after Close.
	ErrClosed = errors.New("supervisor is closed")

	// ErrCancelled indicates that the caller's context ended mid-evaluation.
	ErrCancelled = errors.New("evaluation cancelled")
)

// TimeoutError is returned when the watchdog had to terminate the engine.
type TimeoutError struct {
	Timeout time.Duration
}

// Error returns the error message.
func (e *TimeoutError) Error() string {
	return "evaluation timed out"
}

// Is reports whether this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// CancelledError is returned when context cancellation terminated the engine.
type CancelledError struct {
	Err error
}

// Error returns the error message.
func (e *CancelledError) Error() string {
	return "evaluation cancelled: " + e.Err.Error()
}

// Unwrap returns the context error.
func (e *CancelledError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}
