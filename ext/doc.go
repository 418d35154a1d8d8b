// Package ext defines the extension system for howa.
//
// Extensions are notified of lifecycle events and can react to them —
// recording metrics, writing audit logs, forwarding progress, etc.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnTaskCompleted(ctx context.Context, t *task.Task, elapsed time.Duration) error {
//	    log.Printf("task %s completed in %s", t.ID, elapsed)
//	    return nil
//	}
//
// # Task Lifecycle Hooks
//
//   - [TaskEnqueued] — task was stored and its ID pushed onto the queue
//   - [TaskStarted] — a worker marked the task processing
//   - [TaskCompleted] — the pipeline produced a result
//   - [TaskFailed] — the task was marked failed
//   - [TaskDiscarded] — a popped ID referred to a missing or finished task
//
// # Stage Lifecycle Hooks
//
//   - [StageCompleted] — a pipeline stage merged its output
//   - [StageFailed] — a stage hit a contract violation
//   - [StageDegraded] — a stage fell back after a collaborator failure
//
// # Other Hooks
//
//   - [Shutdown] — the engine is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
