package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/jsgate/internal/codec"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/jsgate/internal/supervisor"
)

var (
	// ErrInvalidTimeout indicates a negative timeout.
	ErrInvalidTimeout = errors.New("timeout must not be negative")

	// ErrResultNotJSON indicates a result that has no JSON encoding (NaN, Infinity).
	ErrResultNotJSON = errors.New("result cannot be encoded as JSON")
)

// Backend evaluates guest code. *gateway.Gateway satisfies it.
type Backend interface {
	Eval(ctx context.Context, code string, timeout time.Duration) (any, error)
	Call(ctx context.Context, fn string, timeout time.Duration, args ...any) (any, error)
	Reset() error
	State() supervisor.State
}

// Policy bounds per-request timeouts.
type Policy struct {
	// DefaultTimeout applies when a request names no timeout.
	DefaultTimeout time.Duration
	// MaxTimeout caps every request; zero means uncapped.
	MaxTimeout time.Duration
}

// Service runs evaluations for the network APIs.
type Service struct {
	backend Backend
	policy  Policy
	breaker *resilience.Breaker
}

// New creates a service. breaker may be nil.
func New(backend Backend, policy Policy, breaker *resilience.Breaker) *Service {
	return &Service{
		backend: backend,
		policy:  policy,
		breaker: breaker,
	}
}

// Timeout resolves a requested timeout in milliseconds. nil selects the
// default, zero means unbounded, and the result never exceeds MaxTimeout.
func (s *Service) Timeout(ms *int64) (time.Duration, error) {
	timeout := s.policy.DefaultTimeout
	if ms != nil {
		if *ms < 0 {
			return 0, ErrInvalidTimeout
		}
		timeout = time.Duration(*ms) * time.Millisecond
	}

	if s.policy.MaxTimeout > 0 && (timeout == 0 || timeout > s.policy.MaxTimeout) {
		timeout = s.policy.MaxTimeout
	}
	return timeout, nil
}

// Eval evaluates code.
func (s *Service) Eval(ctx context.Context, code string, timeoutMS *int64) (any, error) {
	timeout, err := s.Timeout(timeoutMS)
	if err != nil {
		return nil, err
	}
	return s.guard(func() (any, error) {
		return s.backend.Eval(ctx, code, timeout)
	})
}

// Call calls the global function fn with args.
func (s *Service) Call(ctx context.Context, fn string, args []any, timeoutMS *int64) (any, error) {
	timeout, err := s.Timeout(timeoutMS)
	if err != nil {
		return nil, err
	}
	return s.guard(func() (any, error) {
		return s.backend.Call(ctx, fn, timeout, args...)
	})
}

// Reset discards the engine.
func (s *Service) Reset() error {
	return s.backend.Reset()
}

// State reports the supervisor state.
func (s *Service) State() supervisor.State {
	return s.backend.State()
}

// BreakerState reports the breaker state, or "disabled".
func (s *Service) BreakerState() string {
	if s.breaker == nil {
		return "disabled"
	}
	return s.breaker.State().String()
}

func (s *Service) guard(run func() (any, error)) (any, error) {
	var (
		result any
		err    error
	)
	if s.breaker == nil {
		result, err = run()
	} else {
		result, err = s.breaker.Execute(run)
	}
	if err != nil {
		return nil, err
	}

	wire, err := codec.HostToWire(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultNotJSON, err)
	}
	return wire, nil
}
