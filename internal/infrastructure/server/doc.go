// Package server assembles the jsgate HTTP server: gateway, service,
// middleware stack, routes and graceful shutdown.
//
// Routes:
//   - GET  /         status, engine state, breaker state, counters
//   - GET  /health   liveness
//   - POST /eval     evaluate a script
//   - POST /call     call a global function
//   - POST /reset    discard the engine
//   - GET  /stream   WebSocket evaluation stream
//   - GET  /metrics  Prometheus exposition
package server
