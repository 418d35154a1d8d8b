// Package worker provides the task execution engine: an Executor that
// advances one task through the pipeline and its status transitions, a
// Loop that consumes the queue sequentially, and a Pool that runs several
// loops as competing consumers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/howa"
	"github.com/xraph/howa/ext"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/middleware"
	"github.com/xraph/howa/task"
)

// Runner produces a result for a request. *pipeline.Orchestrator
// implements it.
type Runner interface {
	Run(ctx context.Context, req task.Request) (*task.Result, error)
}

// Discard reasons reported to ext.TaskDiscarded.
const (
	DiscardMissing  = "missing"
	DiscardTerminal = "terminal"
)

// Executor runs a single task through middleware and the pipeline, then
// records the outcome and emits lifecycle events.
type Executor struct {
	store      task.Store
	runner     Runner
	extensions *ext.Registry
	mw         middleware.Middleware
	logger     *slog.Logger
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(
	store task.Store,
	runner Runner,
	extensions *ext.Registry,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	return &Executor{
		store:      store,
		runner:     runner,
		extensions: extensions,
		mw:         middleware.Chain(mws...),
		logger:     logger,
	}
}

// Process advances the task behind one popped queue signal.
//
// A missing or terminal task is discarded without any write. A task whose
// request fails validation is marked failed without running the pipeline.
// Otherwise the task is marked processing, the pipeline runs, and the task
// ends completed or failed. The returned error is non-nil only when the
// store could not be read or written.
func (e *Executor) Process(ctx context.Context, taskID id.TaskID) error {
	t, err := e.store.Get(ctx, taskID)
	if errors.Is(err, howa.ErrTaskNotFound) {
		e.discard(ctx, taskID, DiscardMissing)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load task %s: %w", taskID, err)
	}
	if t.Status.Terminal() {
		e.discard(ctx, taskID, DiscardTerminal)
		return nil
	}

	// Outcome writes must land even when ctx has been cancelled.
	writeCtx := context.WithoutCancel(ctx)

	if verr := t.Request.Validate(); verr != nil {
		return e.fail(writeCtx, t, fmt.Errorf("invalid request payload: %w", verr))
	}

	if err := e.store.MarkProcessing(ctx, taskID); err != nil {
		switch {
		case errors.Is(err, howa.ErrTaskNotFound):
			e.discard(ctx, taskID, DiscardMissing)
			return nil
		case errors.Is(err, howa.ErrInvalidTransition):
			e.discard(ctx, taskID, DiscardTerminal)
			return nil
		}
		return fmt.Errorf("mark task %s processing: %w", taskID, err)
	}
	t.Status = task.StatusProcessing
	e.extensions.EmitTaskStarted(ctx, t)

	start := time.Now()
	var result *task.Result
	terminal := func(ctx context.Context) error {
		var runErr error
		result, runErr = e.runner.Run(ctx, t.Request)
		return runErr
	}
	runErr := e.mw(howa.WithTaskID(ctx, taskID), t, terminal)
	elapsed := time.Since(start)

	if runErr != nil {
		return e.fail(writeCtx, t, runErr)
	}
	return e.complete(writeCtx, t, result, elapsed)
}

func (e *Executor) complete(ctx context.Context, t *task.Task, result *task.Result, elapsed time.Duration) error {
	if err := e.store.MarkCompleted(ctx, t.ID, result); err != nil {
		e.logger.Error("failed to store task result",
			slog.String("task_id", t.ID.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("mark task %s completed: %w", t.ID, err)
	}
	t.Status = task.StatusCompleted
	t.Result = result
	e.extensions.EmitTaskCompleted(ctx, t, elapsed)
	return nil
}

func (e *Executor) fail(ctx context.Context, t *task.Task, cause error) error {
	msg := cause.Error()
	if err := e.store.MarkFailed(ctx, t.ID, msg); err != nil {
		e.logger.Error("failed to mark task failed",
			slog.String("task_id", t.ID.String()),
			slog.String("cause", msg),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("mark task %s failed: %w", t.ID, err)
	}
	t.Status = task.StatusFailed
	t.Error = msg
	e.extensions.EmitTaskFailed(ctx, t, cause)
	e.logger.Warn("task failed",
		slog.String("task_id", t.ID.String()),
		slog.String("error", msg),
	)
	return nil
}

func (e *Executor) discard(ctx context.Context, taskID id.TaskID, reason string) {
	e.logger.Debug("discarding queue signal",
		slog.String("task_id", taskID.String()),
		slog.String("reason", reason),
	)
	e.extensions.EmitTaskDiscarded(ctx, taskID, reason)
}
