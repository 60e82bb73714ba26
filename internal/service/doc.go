// Package service is the transport-neutral evaluation service shared by the
// HTTP and WebSocket APIs.
//
// It resolves per-request timeouts against the configured policy, consults
// the optional circuit breaker, and checks that results can be encoded as
// JSON before they reach a transport.
//
// Example Usage:
//
//	svc := service.New(gw, service.Policy{DefaultTimeout: 5 * time.Second}, nil)
//	result, err := svc.Eval(ctx, "1 + 1", nil)
//	status, kind := service.Classify(err)
package service
