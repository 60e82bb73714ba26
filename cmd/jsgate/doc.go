// Command jsgate evaluates JavaScript in a supervised goja engine.
//
// Usage:
//
//	# One-off evaluation
//	jsgate eval -c '[1, 2, 3].map(n => n * 2)'
//	jsgate eval --timeout 100ms script.js
//
//	# Call a function defined by preload scripts
//	jsgate call --preload 'lib/*.js' add 1 2
//
//	# Interactive session
//	jsgate repl --preload lib.js
//
//	# HTTP and WebSocket server
//	jsgate serve --config jsgate.yaml
//
// Results print to stdout as JSON. Logs and guest console output go to
// stderr.
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown of serve
package main
