package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type taskEnqueuedEntry struct {
	name string
	hook TaskEnqueued
}

type taskStartedEntry struct {
	name string
	hook TaskStarted
}

type taskCompletedEntry struct {
	name string
	hook TaskCompleted
}

type taskFailedEntry struct {
	name string
	hook TaskFailed
}

type taskDiscardedEntry struct {
	name string
	hook TaskDiscarded
}

type stageCompletedEntry struct {
	name string
	hook StageCompleted
}

type stageFailedEntry struct {
	name string
	hook StageFailed
}

type stageDegradedEntry struct {
	name string
	hook StageDegraded
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// Register all extensions before workers start; emit methods may then be
// called concurrently.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	taskEnqueued   []taskEnqueuedEntry
	taskStarted    []taskStartedEntry
	taskCompleted  []taskCompletedEntry
	taskFailed     []taskFailedEntry
	taskDiscarded  []taskDiscardedEntry
	stageCompleted []stageCompletedEntry
	stageFailed    []stageFailedEntry
	stageDegraded  []stageDegradedEntry
	shutdown       []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(TaskEnqueued); ok {
		r.taskEnqueued = append(r.taskEnqueued, taskEnqueuedEntry{name, h})
	}
	if h, ok := e.(TaskStarted); ok {
		r.taskStarted = append(r.taskStarted, taskStartedEntry{name, h})
	}
	if h, ok := e.(TaskCompleted); ok {
		r.taskCompleted = append(r.taskCompleted, taskCompletedEntry{name, h})
	}
	if h, ok := e.(TaskFailed); ok {
		r.taskFailed = append(r.taskFailed, taskFailedEntry{name, h})
	}
	if h, ok := e.(TaskDiscarded); ok {
		r.taskDiscarded = append(r.taskDiscarded, taskDiscardedEntry{name, h})
	}
	if h, ok := e.(StageCompleted); ok {
		r.stageCompleted = append(r.stageCompleted, stageCompletedEntry{name, h})
	}
	if h, ok := e.(StageFailed); ok {
		r.stageFailed = append(r.stageFailed, stageFailedEntry{name, h})
	}
	if h, ok := e.(StageDegraded); ok {
		r.stageDegraded = append(r.stageDegraded, stageDegradedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Task event emitters
// ──────────────────────────────────────────────────

// EmitTaskEnqueued notifies all extensions that implement TaskEnqueued.
func (r *Registry) EmitTaskEnqueued(ctx context.Context, t *task.Task) {
	for _, e := range r.taskEnqueued {
		if err := e.hook.OnTaskEnqueued(ctx, t); err != nil {
			r.logHookError("OnTaskEnqueued", e.name, err)
		}
	}
}

// EmitTaskStarted notifies all extensions that implement TaskStarted.
func (r *Registry) EmitTaskStarted(ctx context.Context, t *task.Task) {
	for _, e := range r.taskStarted {
		if err := e.hook.OnTaskStarted(ctx, t); err != nil {
			r.logHookError("OnTaskStarted", e.name, err)
		}
	}
}

// EmitTaskCompleted notifies all extensions that implement TaskCompleted.
func (r *Registry) EmitTaskCompleted(ctx context.Context, t *task.Task, elapsed time.Duration) {
	for _, e := range r.taskCompleted {
		if err := e.hook.OnTaskCompleted(ctx, t, elapsed); err != nil {
			r.logHookError("OnTaskCompleted", e.name, err)
		}
	}
}

// EmitTaskFailed notifies all extensions that implement TaskFailed.
func (r *Registry) EmitTaskFailed(ctx context.Context, t *task.Task, taskErr error) {
	for _, e := range r.taskFailed {
		if err := e.hook.OnTaskFailed(ctx, t, taskErr); err != nil {
			r.logHookError("OnTaskFailed", e.name, err)
		}
	}
}

// EmitTaskDiscarded notifies all extensions that implement TaskDiscarded.
func (r *Registry) EmitTaskDiscarded(ctx context.Context, taskID id.TaskID, reason string) {
	for _, e := range r.taskDiscarded {
		if err := e.hook.OnTaskDiscarded(ctx, taskID, reason); err != nil {
			r.logHookError("OnTaskDiscarded", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Stage event emitters
// ──────────────────────────────────────────────────

// EmitStageCompleted notifies all extensions that implement StageCompleted.
func (r *Registry) EmitStageCompleted(ctx context.Context, taskID id.TaskID, stage string, elapsed time.Duration) {
	for _, e := range r.stageCompleted {
		if err := e.hook.OnStageCompleted(ctx, taskID, stage, elapsed); err != nil {
			r.logHookError("OnStageCompleted", e.name, err)
		}
	}
}

// EmitStageFailed notifies all extensions that implement StageFailed.
func (r *Registry) EmitStageFailed(ctx context.Context, taskID id.TaskID, stage string, stageErr error) {
	for _, e := range r.stageFailed {
		if err := e.hook.OnStageFailed(ctx, taskID, stage, stageErr); err != nil {
			r.logHookError("OnStageFailed", e.name, err)
		}
	}
}

// EmitStageDegraded notifies all extensions that implement StageDegraded.
func (r *Registry) EmitStageDegraded(ctx context.Context, taskID id.TaskID, stage string, reason error) {
	for _, e := range r.stageDegraded {
		if err := e.hook.OnStageDegraded(ctx, taskID, stage, reason); err != nil {
			r.logHookError("OnStageDegraded", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Other event emitters
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
