package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/howa/task"
)

// Timeout returns middleware that enforces a per-task execution deadline.
// A non-positive d disables it. When the deadline passes the pipeline
// stops before its next stage and the task fails with
// context.DeadlineExceeded.
func Timeout(logger *slog.Logger, d time.Duration) Middleware {
	return func(ctx context.Context, t *task.Task, next Handler) error {
		if d <= 0 {
			return next(ctx)
		}
		logger.Debug("task timeout set",
			slog.String("task_id", t.ID.String()),
			slog.Duration("timeout", d),
		)
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next(ctx)
	}
}
