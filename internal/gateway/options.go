package gateway

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/jsgate/internal/engine"
)

// Option configures a Gateway.
type Option func(*options)

type options struct {
	preload  []engine.Script
	engine   engine.Options
	logger   *zap.Logger
	observer Observer
}

func defaultOptions() options {
	return options{
		engine: engine.DefaultOptions(),
		logger: zap.NewNop(),
	}
}

// WithPreload appends a script that runs against every fresh engine.
func WithPreload(name, source string) Option {
	return func(o *options) {
		o.preload = append(o.preload, engine.Script{Name: name, Source: source})
	}
}

// WithScripts appends several preload scripts at once.
func WithScripts(scripts ...engine.Script) Option {
	return func(o *options) {
		o.preload = append(o.preload, scripts...)
	}
}

// WithEngineOptions replaces the engine configuration.
func WithEngineOptions(opts engine.Options) Option {
	return func(o *options) {
		o.engine = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the metrics observer.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}
