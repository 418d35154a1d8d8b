package ext

import (
	"context"
	"time"

	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Task lifecycle hooks
// ──────────────────────────────────────────────────

// TaskEnqueued is called after a task is stored and enqueued.
type TaskEnqueued interface {
	OnTaskEnqueued(ctx context.Context, t *task.Task) error
}

// TaskStarted is called after a worker marks a task processing.
type TaskStarted interface {
	OnTaskStarted(ctx context.Context, t *task.Task) error
}

// TaskCompleted is called after a task's result is stored.
type TaskCompleted interface {
	OnTaskCompleted(ctx context.Context, t *task.Task, elapsed time.Duration) error
}

// TaskFailed is called after a task is marked failed.
type TaskFailed interface {
	OnTaskFailed(ctx context.Context, t *task.Task, err error) error
}

// TaskDiscarded is called when a popped ID is skipped because its record
// is missing or already terminal.
type TaskDiscarded interface {
	OnTaskDiscarded(ctx context.Context, taskID id.TaskID, reason string) error
}

// ──────────────────────────────────────────────────
// Stage lifecycle hooks
// ──────────────────────────────────────────────────

// StageCompleted is called after a pipeline stage merges its output.
type StageCompleted interface {
	OnStageCompleted(ctx context.Context, taskID id.TaskID, stage string, elapsed time.Duration) error
}

// StageFailed is called when a stage aborts the pipeline.
type StageFailed interface {
	OnStageFailed(ctx context.Context, taskID id.TaskID, stage string, err error) error
}

// StageDegraded is called when a stage substitutes a fallback value.
type StageDegraded interface {
	OnStageDegraded(ctx context.Context, taskID id.TaskID, stage string, reason error) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
