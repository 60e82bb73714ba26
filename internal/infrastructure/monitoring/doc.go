/*
Package monitoring provides Prometheus metrics for jsgate.

# Overview

Metrics are registered against an injected prometheus.Registerer so that
tests and embedders can use their own registry. The collector tracks HTTP
requests, guest evaluations by operation and outcome, engine
initializations and discards, WebSocket traffic and the circuit breaker.

Metrics implements the gateway observer, so wiring it is one option:

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	gw, err := gateway.New(gateway.WithObserver(metrics))

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
