/*
Package resilience provides a circuit breaker for the evaluation endpoints.

# Overview

The HTTP layer can wrap guest evaluations in a Breaker so that a client
repeatedly submitting runaway scripts stops paying for an engine rebuild on
every request. IsFailure selects which errors count; jsgate counts only
evaluation timeouts, so ordinary guest exceptions never trip it.

# Usage

	breaker := resilience.New("eval", resilience.Settings{
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.TripAfter(5),
		IsFailure: func(err error) bool {
			return errors.Is(err, supervisor.ErrTimeout)
		},
	})

	done, err := breaker.Allow()
	if err != nil {
		// open: reject without touching the engine
	}
	result, err := gw.Eval(ctx, code, timeout)
	done(err)

# Pattern

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
