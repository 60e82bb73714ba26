/*
Package supervisor runs guest scripts under a wall-clock bound.

A Supervisor is a two-state machine over one engine:

	uninitialized --acquire--> ready --timeout/cancel/Reset--> uninitialized

Bounded evaluations start a watchdog goroutine that holds only the engine's
Interrupter. The evaluating goroutine signals a buffered done channel when
the script returns and then joins on the watchdog's verdict, so the engine
is never terminated after the script completed and a timeout is never
reported unless the watchdog fired.

Usage:

	sup, err := supervisor.New(supervisor.Config{
		Preload: []engine.Script{{Name: "lib.js", Source: lib}},
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer sup.Close()

	v, err := sup.Eval(ctx, "compute()", 500*time.Millisecond)
	if errors.Is(err, supervisor.ErrTimeout) {
		// the engine was discarded; lib.js runs again on the next Eval
	}
*/
package supervisor
