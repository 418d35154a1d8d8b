package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/howa/backoff"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// Loop is a single sequential consumer: it pops one task ID at a time and
// processes it to completion before popping again.
type Loop struct {
	queue        task.Queue
	executor     *Executor
	pollTimeout  time.Duration
	errorBackoff backoff.Strategy
	failures     int // consecutive store errors
	workerID     id.WorkerID
	logger       *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc // cancels the in-flight task, if any
}

// NewLoop creates a Loop. A zero pollTimeout or nil errorBackoff takes the
// DefaultConfig values.
func NewLoop(queue task.Queue, executor *Executor, pollTimeout time.Duration, errorBackoff backoff.Strategy, logger *slog.Logger) *Loop {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	if errorBackoff == nil {
		errorBackoff = backoff.ForErrors(time.Second, 30*time.Second)
	}
	return &Loop{
		queue:        queue,
		executor:     executor,
		pollTimeout:  pollTimeout,
		errorBackoff: errorBackoff,
		workerID:     id.NewWorkerID(),
		logger:       logger,
	}
}

// WorkerID returns the loop's identifier.
func (l *Loop) WorkerID() id.WorkerID { return l.workerID }

// Run consumes the queue until ctx is cancelled. Cancellation is observed
// between tasks only: a task already being processed runs to its outcome.
// Run returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("worker loop started", slog.String("worker_id", l.workerID.String()))
	defer l.logger.Debug("worker loop stopped", slog.String("worker_id", l.workerID.String()))

	for {
		if ctx.Err() != nil {
			return nil
		}

		taskID, ok, err := l.queue.PopBlocking(ctx, l.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Error("queue pop failed",
				slog.String("worker_id", l.workerID.String()),
				slog.String("error", err.Error()),
			)
			l.backoff(ctx)
			continue
		}
		l.failures = 0
		if !ok {
			continue
		}

		if err := l.Process(ctx, taskID); err != nil {
			l.logger.Error("task processing failed",
				slog.String("worker_id", l.workerID.String()),
				slog.String("task_id", taskID.String()),
				slog.String("error", err.Error()),
			)
			l.backoff(ctx)
		}
	}
}

// Process handles one task ID. The task runs detached from ctx's
// cancellation; only Abort interrupts it.
func (l *Loop) Process(ctx context.Context, taskID id.TaskID) error {
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.cancel = nil
		l.mu.Unlock()
	}()

	return l.executor.Process(taskCtx, taskID)
}

// Abort cancels the in-flight task, if any. The pipeline stops before its
// next stage and the task is marked failed.
func (l *Loop) Abort() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.logger.Warn("aborting in-flight task", slog.String("worker_id", l.workerID.String()))
		l.cancel()
	}
}

func (l *Loop) backoff(ctx context.Context) {
	l.failures++
	t := time.NewTimer(l.errorBackoff.Delay(l.failures))
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
