package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/howa/task"
)

// meterName is the instrumentation scope name for howa metrics.
const meterName = "github.com/xraph/howa"

// Metrics returns middleware that records per-task execution metrics using
// the global OTel MeterProvider. If no MeterProvider is configured, noop
// instruments are used and this middleware becomes a pass-through.
//
// Instruments:
//   - howa.task.duration (Float64Histogram): pipeline time in seconds,
//     with attribute status ("ok" or "error")
//   - howa.task.executions (Int64Counter): total pipeline runs,
//     with attribute status ("ok" or "error")
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter returns metrics middleware using the provided meter.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// On error the API returns noop instruments.
	duration, _ := meter.Float64Histogram(
		"howa.task.duration",
		metric.WithDescription("Duration of task pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	executions, _ := meter.Int64Counter(
		"howa.task.executions",
		metric.WithDescription("Total number of task pipeline runs"),
		metric.WithUnit("{execution}"),
	)

	return func(ctx context.Context, t *task.Task, next Handler) error {
		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(attribute.String("status", status))

		duration.Record(ctx, elapsed, attrs)
		executions.Add(ctx, 1, attrs)

		return err
	}
}
