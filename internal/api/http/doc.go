// Package http provides the gin handlers for the JSON evaluation API.
//
// Routes:
//   - GET  /         service status, engine state and counters
//   - GET  /health   liveness
//   - POST /eval     {"code": "...", "timeout_ms": 100}
//   - POST /call     {"function": "f", "args": [...], "timeout_ms": 100}
//   - POST /reset    discard the engine
//
// Errors are returned as {"error": "...", "kind": "..."} with the status
// chosen by service.Classify.
package http
