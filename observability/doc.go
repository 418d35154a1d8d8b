// Package observability provides an OpenTelemetry metrics extension for
// howa. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for task enqueue, completion, failure and discard,
// plus per-stage duration and degradation.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
