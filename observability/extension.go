package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/howa/ext"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/howa/observability"

// Compile-time interface checks.
var (
	_ ext.Extension      = (*MetricsExtension)(nil)
	_ ext.TaskEnqueued   = (*MetricsExtension)(nil)
	_ ext.TaskCompleted  = (*MetricsExtension)(nil)
	_ ext.TaskFailed     = (*MetricsExtension)(nil)
	_ ext.TaskDiscarded  = (*MetricsExtension)(nil)
	_ ext.StageCompleted = (*MetricsExtension)(nil)
	_ ext.StageFailed    = (*MetricsExtension)(nil)
	_ ext.StageDegraded  = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via an OTel
// meter. Register it as an extension to track enqueue rates, completion
// and failure counts, discarded queue signals, and stage health.
type MetricsExtension struct {
	TaskEnqueued  metric.Int64Counter
	TaskCompleted metric.Int64Counter
	TaskFailed    metric.Int64Counter
	TaskDiscarded metric.Int64Counter
	StageDuration metric.Float64Histogram
	StageFailed   metric.Int64Counter
	StageDegraded metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. On instrument errors the OTel API returns noop instruments.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc))
		return c
	}
	duration, _ := meter.Float64Histogram("howa.stage.duration",
		metric.WithDescription("Duration of pipeline stages in seconds"),
		metric.WithUnit("s"),
	)
	return &MetricsExtension{
		TaskEnqueued:  counter("howa.task.enqueued", "Tasks accepted and enqueued"),
		TaskCompleted: counter("howa.task.completed", "Tasks completed with a result"),
		TaskFailed:    counter("howa.task.failed", "Tasks marked failed"),
		TaskDiscarded: counter("howa.task.discarded", "Queue signals skipped for missing or finished tasks"),
		StageDuration: duration,
		StageFailed:   counter("howa.stage.failed", "Stages that aborted the pipeline"),
		StageDegraded: counter("howa.stage.degraded", "Stages that fell back after a collaborator failure"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Task lifecycle hooks ────────────────────────────

// OnTaskEnqueued implements ext.TaskEnqueued.
func (m *MetricsExtension) OnTaskEnqueued(ctx context.Context, _ *task.Task) error {
	m.TaskEnqueued.Add(ctx, 1)
	return nil
}

// OnTaskCompleted implements ext.TaskCompleted.
func (m *MetricsExtension) OnTaskCompleted(ctx context.Context, _ *task.Task, _ time.Duration) error {
	m.TaskCompleted.Add(ctx, 1)
	return nil
}

// OnTaskFailed implements ext.TaskFailed.
func (m *MetricsExtension) OnTaskFailed(ctx context.Context, _ *task.Task, _ error) error {
	m.TaskFailed.Add(ctx, 1)
	return nil
}

// OnTaskDiscarded implements ext.TaskDiscarded.
func (m *MetricsExtension) OnTaskDiscarded(ctx context.Context, _ id.TaskID, reason string) error {
	m.TaskDiscarded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	return nil
}

// ── Stage lifecycle hooks ───────────────────────────

// OnStageCompleted implements ext.StageCompleted.
func (m *MetricsExtension) OnStageCompleted(ctx context.Context, _ id.TaskID, stage string, elapsed time.Duration) error {
	m.StageDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
	return nil
}

// OnStageFailed implements ext.StageFailed.
func (m *MetricsExtension) OnStageFailed(ctx context.Context, _ id.TaskID, stage string, _ error) error {
	m.StageFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	return nil
}

// OnStageDegraded implements ext.StageDegraded.
func (m *MetricsExtension) OnStageDegraded(ctx context.Context, _ id.TaskID, stage string, _ error) error {
	m.StageDegraded.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	return nil
}
