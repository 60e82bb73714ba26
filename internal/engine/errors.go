package engine

import (
	"errors"
	"fmt"
)

// ErrExecution indicates that the guest engine reported a failure.
var ErrExecution = errors.New("guest execution error")

// FailureKind identifies which part of guest execution failed.
type FailureKind string

const (
	FailureSyntax      FailureKind = "syntax"
	FailureException   FailureKind = "exception"
	FailureRejection   FailureKind = "rejection"
	FailureInterrupted FailureKind = "interrupted"
)

// ExecutionError carries the engine's diagnostic for a failed script.
// Syntax errors, thrown exceptions, unhandled rejections and forced
// terminations all surface as this one type.
type ExecutionError struct {
	// Script is the diagnostic name the code was submitted under.
	Script string

	// Kind identifies the failure.
	Kind FailureKind

	// Message is the engine's diagnostic text.
	Message string

	// Err is the underlying goja error, if any.
	Err error
}

// Error returns the error message.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Script, e.Kind, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}
