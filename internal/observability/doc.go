// Package observability provides logging, metrics, and tracing for the
// dispatcher.
//
// # Logging
//
// Logger is a small interface over zap. Library components default to
// NopLogger and accept a logger through functional options:
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//
// # Metrics
//
// Metrics owns a private Prometheus registry. It implements the narrow
// recorder interfaces of the index, resolution and selector packages, so
// the same instance can be handed to each of them:
//
//	metrics := observability.NewMetrics("dispatcher")
//	http.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
// Tracer wraps an OpenTelemetry tracer provider exporting over OTLP/gRPC.
// When disabled it falls back to the global (no-op) provider.
package observability
