package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/jsgate/internal/codec"
	"github.com/GriffinCanCode/jsgate/internal/engine"
	"github.com/GriffinCanCode/jsgate/internal/supervisor"
)

// Operation labels used for metrics.
const (
	OpEval = "eval"
	OpCall = "call"
)

// Observer receives engine lifecycle events and per-evaluation outcomes.
type Observer interface {
	supervisor.Observer
	EvalCompleted(op, outcome string, duration time.Duration)
}

// Gateway is the host-facing entry point: it evaluates code and calls guest
// functions with host arguments.
type Gateway struct {
	sup      *supervisor.Supervisor
	logger   *zap.Logger
	observer Observer
}

// New creates a gateway and initializes its engine.
func New(opts ...Option) (*Gateway, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg := supervisor.Config{
		Preload: o.preload,
		Engine:  o.engine,
		Logger:  o.logger,
	}
	if o.observer != nil {
		cfg.Observer = o.observer
	}

	sup, err := supervisor.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start supervisor: %w", err)
	}

	return &Gateway{
		sup:      sup,
		logger:   o.logger,
		observer: o.observer,
	}, nil
}

// Eval evaluates code in the engine's global scope. A zero timeout means
// unbounded.
func (g *Gateway) Eval(ctx context.Context, code string, timeout time.Duration) (any, error) {
	start := time.Now()
	result, err := g.sup.Eval(ctx, code, timeout)
	g.record(OpEval, err, time.Since(start))
	return result, err
}

// Call invokes the global function fn with args. Arguments are serialized
// before any guest code runs. fn is inserted into the generated expression
// as-is.
func (g *Gateway) Call(ctx context.Context, fn string, timeout time.Duration, args ...any) (any, error) {
	start := time.Now()

	encoded, err := codec.EncodeArgs(args)
	if err != nil {
		g.record(OpCall, err, time.Since(start))
		return nil, err
	}

	result, err := g.sup.Eval(ctx, CallExpression(fn, encoded), timeout)
	g.record(OpCall, err, time.Since(start))
	return result, err
}

// Reset discards the engine; the next evaluation replays the preload scripts.
func (g *Gateway) Reset() error {
	return g.sup.Reset()
}

// State reports the supervisor state.
func (g *Gateway) State() supervisor.State {
	return g.sup.State()
}

// Close releases the engine.
func (g *Gateway) Close() error {
	return g.sup.Close()
}

// CallExpression builds the guest expression that applies fn to an encoded
// argument array.
func CallExpression(fn, encodedArgs string) string {
	return fn + ".apply(this, " + encodedArgs + ")"
}

func (g *Gateway) record(op string, err error, d time.Duration) {
	outcome := Outcome(err)
	if err != nil {
		g.logger.Debug("evaluation failed",
			zap.String("op", op),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
	if g.observer != nil {
		g.observer.EvalCompleted(op, outcome, d)
	}
}

// Outcome classifies an evaluation error into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, codec.ErrSerialization):
		return "serialization_error"
	case errors.Is(err, codec.ErrConversion):
		return "conversion_error"
	case errors.Is(err, supervisor.ErrTimeout):
		return "timeout"
	case errors.Is(err, supervisor.ErrCancelled):
		return "cancelled"
	case errors.Is(err, engine.ErrExecution):
		return "execution_error"
	default:
		return "error"
	}
}
