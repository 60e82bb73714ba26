// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default so that CLI results on stdout stay clean.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//	sup, err := supervisor.New(supervisor.Config{Logger: logger.Component("supervisor")})
package logging
