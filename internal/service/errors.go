package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/GriffinCanCode/jsgate/internal/codec"
	"github.com/GriffinCanCode/jsgate/internal/engine"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/jsgate/internal/supervisor"
)

// StatusClientClosedRequest is the non-standard status for requests whose
// client went away mid-evaluation.
const StatusClientClosedRequest = 499

// Error kinds reported to API clients.
const (
	KindSerialization = "serialization"
	KindConversion    = "conversion"
	KindExecution     = "execution"
	KindTimeout       = "timeout"
	KindCancelled     = "cancelled"
	KindUnavailable   = "unavailable"
	KindInvalid       = "invalid_request"
	KindResult        = "result"
	KindInternal      = "internal"
)

// Classify maps an evaluation error to an HTTP status and an error kind.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidTimeout):
		return http.StatusBadRequest, KindInvalid
	case errors.Is(err, codec.ErrSerialization):
		return http.StatusBadRequest, KindSerialization
	case errors.Is(err, ErrResultNotJSON):
		return http.StatusUnprocessableEntity, KindResult
	case errors.Is(err, codec.ErrConversion):
		return http.StatusUnprocessableEntity, KindConversion
	case errors.Is(err, supervisor.ErrTimeout):
		return http.StatusRequestTimeout, KindTimeout
	case errors.Is(err, supervisor.ErrCancelled), errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, KindCancelled
	case errors.Is(err, engine.ErrExecution):
		return http.StatusUnprocessableEntity, KindExecution
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests),
		errors.Is(err, supervisor.ErrClosed):
		return http.StatusServiceUnavailable, KindUnavailable
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// IsTimeout reports whether err should count against the circuit breaker.
func IsTimeout(err error) bool {
	return errors.Is(err, supervisor.ErrTimeout)
}
