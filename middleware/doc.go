// Package middleware provides composable middleware for task execution.
//
// A [Middleware] is a function that wraps the pipeline run of one task.
// Middleware are composed into a chain using [Chain] and applied by the
// worker loop after the task is marked processing. They are applied
// right-to-left: the first middleware in the slice is the outermost wrapper.
//
//	// recover → logging → handler
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// # Built-in Middleware
//
//   - [Recover] — catches panics and converts them to errors
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-task duration and outcome counters
//   - [Logging] — logs task ID, theme, duration, and outcome
//   - [Timeout] — cancels the pipeline context after a configured duration
//
// The worker's default chain is Recover, Tracing, Metrics, Logging,
// Timeout, in that order.
package middleware
