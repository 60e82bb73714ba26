// Package config provides 12-factor configuration management for jsgate.
//
// Configuration is loaded from environment variables with sensible defaults.
// A .env file in the working directory is merged first. Alternatively a
// YAML, TOML or JSON file can be loaded with LoadFile.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown, gzip)
//   - Engine: preload globs, timeouts, call stack limit, console
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Breaker: Circuit breaker tripped by repeated timeouts
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	scripts, err := config.ExpandPreload(cfg.Engine.Preload)
//
// Environment Variables:
//   - JSGATE_PORT, JSGATE_HOST, JSGATE_SHUTDOWN_TIMEOUT, JSGATE_GZIP
//   - JSGATE_PRELOAD, JSGATE_DEFAULT_TIMEOUT, JSGATE_MAX_TIMEOUT
//   - JSGATE_MAX_CALL_STACK, JSGATE_CONSOLE
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - BREAKER_ENABLED, BREAKER_MAX_TIMEOUTS, BREAKER_COOLDOWN
package config
