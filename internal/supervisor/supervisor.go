package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/jsgate/internal/engine"
)

// EvalScriptName labels code submitted through Eval in diagnostics.
const EvalScriptName = "<eval>"

// Config configures a Supervisor.
type Config struct {
	// Preload scripts run, in order, against every fresh engine.
	Preload []engine.Script

	Engine   engine.Options
	Logger   *zap.Logger
	Observer Observer
}

// Supervisor owns at most one guest engine and runs scripts on it with an
// optional wall-clock bound. An engine that had to be terminated is thrown
// away and rebuilt, with the preload scripts replayed, on the next Eval.
type Supervisor struct {
	mu       sync.Mutex
	state    state
	preload  []engine.Script
	opts     engine.Options
	logger   *zap.Logger
	observer Observer
}

// New creates a supervisor and initializes its first engine. A failing
// preload script fails construction.
func New(cfg Config) (*Supervisor, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}

	s := &Supervisor{
		state:    uninitialized{},
		preload:  append([]engine.Script(nil), cfg.Preload...),
		opts:     cfg.Engine,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}

	if _, err := s.acquire(); err != nil {
		return nil, err
	}

	return s, nil
}

// Eval runs code in the engine's global scope. A zero timeout means
// unbounded. Cancelling ctx terminates the engine the same way a timeout
// does.
func (s *Supervisor) Eval(ctx context.Context, code string, timeout time.Duration) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(closed); ok {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, &CancelledError{Err: err}
	}

	eng, err := s.acquire()
	if err != nil {
		return nil, err
	}

	if timeout <= 0 && ctx.Done() == nil {
		return eng.Run(EvalScriptName, code)
	}

	done := make(chan struct{}, 1)
	verdicts := make(chan verdict, 1)
	go watch(ctx, eng.Interrupter(), timeout, done, verdicts)

	result, err := eng.Run(EvalScriptName, code)
	done <- struct{}{}

	switch <-verdicts {
	case timedOut:
		s.logger.Warn("evaluation timed out, discarding engine", zap.Duration("timeout", timeout))
		s.discard(DiscardTimeout)
		return nil, &TimeoutError{Timeout: timeout}
	case cancelled:
		s.logger.Warn("evaluation cancelled, discarding engine", zap.Error(ctx.Err()))
		s.discard(DiscardCancelled)
		return nil, &CancelledError{Err: ctx.Err()}
	}

	return result, err
}

// Reset discards the current engine. The next Eval builds a fresh one.
func (s *Supervisor) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(closed); ok {
		return ErrClosed
	}
	s.discard(DiscardReset)
	return nil
}

// State returns the current supervisor state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.kind()
}

// Close discards the engine and rejects further calls. It waits for an
// in-flight Eval to finish.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.(closed); ok {
		return nil
	}
	s.discard(DiscardClose)
	s.state = closed{}
	return nil
}

// acquire returns the ready engine, initializing one if needed.
// Callers hold s.mu.
func (s *Supervisor) acquire() (*engine.Engine, error) {
	if r, ok := s.state.(ready); ok {
		return r.eng, nil
	}

	start := time.Now()
	eng, err := engine.New(s.opts, s.logger.Named("guest"))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	for _, script := range s.preload {
		if err := eng.Exec(script.Name, script.Source); err != nil {
			eng.Close()
			s.logger.Error("preload script failed",
				zap.String("script", script.Name),
				zap.Error(err))
			return nil, fmt.Errorf("preload %s: %w", script.Name, err)
		}
	}

	s.state = ready{eng: eng}
	s.observer.EngineInitialized()
	s.logger.Info("guest engine initialized",
		zap.Int("preload_scripts", len(s.preload)),
		zap.Duration("duration", time.Since(start)))

	return eng, nil
}

// discard drops the engine, if any. Callers hold s.mu.
func (s *Supervisor) discard(reason string) {
	r, ok := s.state.(ready)
	if !ok {
		return
	}
	r.eng.Close()
	s.state = uninitialized{}
	s.observer.EngineDiscarded(reason)
	s.logger.Debug("guest engine discarded", zap.String("reason", reason))
}
