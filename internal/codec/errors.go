package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors for error classification.
var (
	// ErrConversion indicates a guest value that has no host representation.
	ErrConversion = errors.New("conversion error")

	// ErrSerialization indicates a host value that cannot be passed to the guest.
	ErrSerialization = errors.New("serialization error")
)

// ConversionError reports a guest value that could not be converted to a
// host value, such as a function or a symbol.
type ConversionError struct {
	// Kind is the classification of the offending guest value.
	Kind Kind

	// Reason describes why the conversion failed.
	Reason string
}

// Error returns the error message.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("unable to convert guest value of kind %s: %s", e.Kind, e.Reason)
}

// Is reports whether this error matches the target.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// SerializationError reports a host value that could not be encoded as a
// call argument.
type SerializationError struct {
	// Type is the Go type of the offending value.
	Type string

	// Reason describes why the value was rejected.
	Reason string

	// Err is the underlying encoder error, if any.
	Err error
}

// Error returns the error message.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("unable to serialize host value of type %s: %s", e.Type, e.Reason)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target.
func (e *SerializationError) Is(target error) bool {
	return target == ErrSerialization
}

const noHandler = "no conversion handler defined for this type"

func unsupportedGuest(kind Kind) error {
	return &ConversionError{Kind: kind, Reason: noHandler}
}

func unsupportedHost(v any) error {
	return &SerializationError{Type: fmt.Sprintf("%T", v), Reason: noHandler}
}
