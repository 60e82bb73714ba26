// Package middleware provides the gin middleware stack for the HTTP API:
// request IDs, access logging, panic recovery, CORS and per-IP rate limits.
package middleware
