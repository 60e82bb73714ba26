package supervisor

import (
	"context"
	"time"

	"github.com/GriffinCanCode/jsgate/internal/engine"
)

type verdict int

const (
	completed verdict = iota
	timedOut
	cancelled
)

// watch terminates the engine if the timer or ctx fires before done is
// signalled, then reports exactly one verdict. A zero timeout arms only ctx.
func watch(ctx context.Context, stop engine.Interrupter, timeout time.Duration, done <-chan struct{}, verdicts chan<- verdict) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-done:
		verdicts <- completed
	case <-expired:
		verdicts <- fire(stop, done, timedOut)
	case <-ctx.Done():
		verdicts <- fire(stop, done, cancelled)
	}
}

// fire terminates the engine unless done raced in alongside the trigger.
func fire(stop engine.Interrupter, done <-chan struct{}, v verdict) verdict {
	select {
	case <-done:
		return completed
	default:
	}
	stop.Terminate()
	return v
}
