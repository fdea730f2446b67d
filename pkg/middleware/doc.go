// Package middleware provides stock middlewares for extensible stores:
// structured logging, OpenTelemetry tracing, Prometheus metrics, and
// update rate limiting around every logical SetState call.
//
//	e, _ := statekit.NewExtensible(initial)
//	e.Use(middleware.Logging(slog.Default()))
//	e.Use(middleware.OpenTelemetry())
//	e.Use(middleware.Prometheus())
package middleware
