package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/jsgate/internal/codec"
)

// ErrTerminated is the interrupt value delivered to a terminated script.
var ErrTerminated = errors.New("execution terminated")

// errClosed is returned by Run after Close.
var errClosed = errors.New("engine is closed")

// Options configures a guest engine.
type Options struct {
	MaxCallStackSize int  // 0 keeps the goja default
	Console          bool // install console.* forwarding to the logger
}

// DefaultOptions returns the engine configuration used when none is given.
func DefaultOptions() Options {
	return Options{
		MaxCallStackSize: 0,
		Console:          true,
	}
}

// Engine owns exactly one goja runtime. It is not safe for concurrent use;
// only the Interrupter it hands out may be used from another goroutine.
type Engine struct {
	vm     *goja.Runtime
	logger *zap.Logger

	// unhandled tracks promises rejected without a handler during Run.
	unhandled []*goja.Promise
	closed    bool
}

// New creates a guest engine.
func New(opts Options, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	vm := goja.New()
	if opts.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(opts.MaxCallStackSize)
	}

	e := &Engine{
		vm:     vm,
		logger: logger,
	}

	vm.SetPromiseRejectionTracker(e.trackRejection)

	if opts.Console {
		if err := e.installConsole(); err != nil {
			return nil, fmt.Errorf("failed to install console: %w", err)
		}
	}

	return e, nil
}

// Run compiles and executes code, labelled name for diagnostics, and
// converts its completion value to a host value.
func (e *Engine) Run(name, code string) (any, error) {
	return e.run(name, code, true)
}

// Exec executes code like Run but discards the completion value. Preload
// scripts use it, since they commonly end in a function expression.
func (e *Engine) Exec(name, code string) error {
	_, err := e.run(name, code, false)
	return err
}

func (e *Engine) run(name, code string, convert bool) (result any, err error) {
	if e.closed {
		return nil, errClosed
	}

	e.unhandled = e.unhandled[:0]

	// Interrupts and stack overflows raised while converting the result
	// (getters run guest code) escape Runtime.Try as panics.
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok || !isGuestFailure(rerr) {
				panic(r)
			}
			result, err = nil, e.executionError(name, rerr)
		}
	}()

	value, runErr := e.vm.RunScript(name, code)
	if runErr != nil {
		return nil, e.executionError(name, runErr)
	}

	if len(e.unhandled) > 0 {
		return nil, e.rejectionError(name, e.unhandled[0])
	}

	if !convert {
		return nil, nil
	}

	var convErr error
	if ex := e.vm.Try(func() {
		result, convErr = codec.GuestToHost(e.vm, value)
	}); ex != nil {
		return nil, e.executionError(name, ex)
	}
	if convErr != nil {
		return nil, convErr
	}

	return result, nil
}

// Interrupter returns the termination handle bound to this engine.
func (e *Engine) Interrupter() Interrupter {
	return &interrupter{vm: e.vm}
}

// Close releases the runtime. The engine cannot be used afterwards.
func (e *Engine) Close() {
	e.closed = true
	e.vm = nil
	e.unhandled = nil
}

func (e *Engine) trackRejection(p *goja.Promise, op goja.PromiseRejectionOperation) {
	switch op {
	case goja.PromiseRejectionReject:
		e.unhandled = append(e.unhandled, p)
	case goja.PromiseRejectionHandle:
		for i, pending := range e.unhandled {
			if pending == p {
				e.unhandled = append(e.unhandled[:i], e.unhandled[i+1:]...)
				break
			}
		}
	}
}

func (e *Engine) rejectionError(name string, p *goja.Promise) error {
	reason := "undefined"
	if ex := e.vm.Try(func() {
		if r := p.Result(); r != nil {
			reason = r.String()
		}
	}); ex != nil {
		reason = ex.Error()
	}

	return &ExecutionError{
		Script:  name,
		Kind:    FailureRejection,
		Message: "unhandled promise rejection: " + reason,
	}
}

func (e *Engine) executionError(name string, err error) error {
	var (
		interrupted *goja.InterruptedError
		syntax      *goja.CompilerSyntaxError
		compile     *goja.CompilerError
	)

	kind := FailureException
	switch {
	case errors.As(err, &interrupted):
		kind = FailureInterrupted
	case errors.As(err, &syntax), errors.As(err, &compile):
		kind = FailureSyntax
	}

	return &ExecutionError{
		Script:  name,
		Kind:    kind,
		Message: err.Error(),
		Err:     err,
	}
}

func isGuestFailure(err error) bool {
	var (
		interrupted *goja.InterruptedError
		overflow    *goja.StackOverflowError
		exception   *goja.Exception
	)
	return errors.As(err, &interrupted) || errors.As(err, &overflow) || errors.As(err, &exception)
}

func (e *Engine) installConsole() error {
	console := e.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(level, e.consoleFunc(level)); err != nil {
			return err
		}
	}
	return e.vm.Set("console", console)
}

func (e *Engine) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		switch level {
		case "error":
			e.logger.Error(msg, zap.String("source", "console"))
		case "warn":
			e.logger.Warn(msg, zap.String("source", "console"))
		case "debug":
			e.logger.Debug(msg, zap.String("source", "console"))
		default:
			e.logger.Info(msg, zap.String("source", "console"))
		}
		return goja.Undefined()
	}
}

// Interrupter forcibly stops guest execution. Terminate may be called from
// any goroutine, any number of times.
type Interrupter interface {
	Terminate()
}

type interrupter struct {
	vm   *goja.Runtime
	once sync.Once
}

func (i *interrupter) Terminate() {
	i.once.Do(func() {
		i.vm.Interrupt(ErrTerminated)
	})
}
