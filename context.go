package howa

import (
	"context"

	"github.com/xraph/howa/id"
)

type taskIDKey struct{}

// WithTaskID returns a copy of ctx carrying the ID of the task being
// processed. Pipeline stages and extensions read it back with
// TaskIDFromContext.
func WithTaskID(ctx context.Context, taskID id.TaskID) context.Context {
	return context.WithValue(ctx, taskIDKey{}, taskID)
}

// TaskIDFromContext returns the task ID stored by WithTaskID, or id.Nil.
func TaskIDFromContext(ctx context.Context) id.TaskID {
	if v, ok := ctx.Value(taskIDKey{}).(id.TaskID); ok {
		return v
	}
	return id.Nil
}
