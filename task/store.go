package task

import (
	"context"
	"time"

	"github.com/xraph/howa/id"
)

// Store defines the persistence contract for tasks. The store is the
// source of truth for task state.
type Store interface {
	// Create allocates a fresh ID, writes a queued record with the
	// retention TTL, and pushes the ID onto the queue as one atomic unit.
	// Infrastructure failures wrap howa.ErrStoreUnavailable.
	Create(ctx context.Context, req Request) (*Task, error)

	// Get reconstructs a task from its stored fields. Returns
	// howa.ErrTaskNotFound when the record is absent or expired.
	Get(ctx context.Context, taskID id.TaskID) (*Task, error)

	// MarkProcessing moves a non-terminal task to processing.
	MarkProcessing(ctx context.Context, taskID id.TaskID) error

	// MarkCompleted stores the result and moves the task to completed.
	MarkCompleted(ctx context.Context, taskID id.TaskID, result *Result) error

	// MarkFailed stores a diagnostic and moves the task to failed.
	MarkFailed(ctx context.Context, taskID id.TaskID, message string) error
}

// Queue carries task IDs from submitters to worker loops. It is signaling
// state only; a popped ID may refer to a missing or finished task.
type Queue interface {
	// Push appends the ID to the tail of the queue.
	Push(ctx context.Context, taskID id.TaskID) error

	// PopBlocking removes and returns the head of the queue, waiting up to
	// timeout. It returns ok=false with a nil error when nothing arrived.
	// Each pushed ID is delivered to exactly one waiting consumer.
	PopBlocking(ctx context.Context, timeout time.Duration) (taskID id.TaskID, ok bool, err error)
}

// Backend is a Store and Queue sharing one underlying connection.
type Backend interface {
	Store
	Queue

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources owned by the backend.
	Close() error
}
