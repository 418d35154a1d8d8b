package task

import (
	"github.com/xraph/howa"
	"github.com/xraph/howa/id"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	// StatusQueued means the task is stored and waiting for a worker.
	StatusQueued Status = "queued"
	// StatusProcessing means a worker is running the pipeline for the task.
	StatusProcessing Status = "processing"
	// StatusCompleted means the pipeline produced a result.
	StatusCompleted Status = "completed"
	// StatusFailed means the task ended without a result.
	StatusFailed Status = "failed"
)

// ParseStatus maps a stored status string onto a Status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return st, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether a task in status s may move to next.
// Processing may be re-entered so an interrupted run can be redelivered.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Task is one submitted sermon request tracked to a terminal outcome.
type Task struct {
	howa.Entity

	ID      id.TaskID `json:"id"`
	Status  Status    `json:"status"`
	Request Request   `json:"request"`
	Result  *Result   `json:"result,omitempty"`
	Error   string    `json:"error,omitempty"`
}
