/*
Package engine wraps a single goja runtime as the guest engine.

An Engine executes scripts in global scope and converts completion values
with the codec package. State created by one script (globals, functions)
stays visible to later scripts on the same engine.

# Failures

Every guest-side failure is an *ExecutionError carrying a FailureKind:

	_, err := eng.Run("<eval>", "throw new Error('nope')")
	var execErr *engine.ExecutionError
	if errors.As(err, &execErr) && execErr.Kind == engine.FailureException {
		// ...
	}

Promises rejected without a handler by the time the microtask queue drains
fail the run with FailureRejection.

# Termination

Interrupter returns a handle whose Terminate method is safe to call from any
goroutine. A terminated engine must not be reused.
*/
package engine
