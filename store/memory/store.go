// Package memory provides an in-process task.Backend. It mirrors the Redis
// backend's semantics (atomic create-and-enqueue, TTL refreshed on every
// write, absorbing terminal states, competing-consumer blocking pop) and is
// intended for tests, development, and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/howa"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// Ensure Store implements task.Backend at compile time.
var _ task.Backend = (*Store)(nil)

type record struct {
	task      task.Task
	expiresAt time.Time // zero means no expiry
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the retention window applied on every write.
// Zero disables expiry.
func WithTTL(d time.Duration) Option {
	return func(m *Store) { m.ttl = d }
}

// WithClock replaces time.Now, which lets tests move past the TTL.
func WithClock(now func() time.Time) Option {
	return func(m *Store) { m.now = now }
}

// Store is a fully in-memory implementation of task.Backend.
// Safe for concurrent access.
type Store struct {
	mu sync.Mutex

	tasks map[string]*record
	queue []id.TaskID

	// notify is closed and replaced on every push to wake blocked poppers.
	notify chan struct{}

	ttl time.Duration
	now func() time.Time
}

// New returns a new empty Store.
func New(opts ...Option) *Store {
	m := &Store{
		tasks:  make(map[string]*record),
		notify: make(chan struct{}),
		ttl:    time.Hour,
		now:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// ──────────────────────────────────────────────────
// Lifecycle — Ping / Close
// ──────────────────────────────────────────────────

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Task Store
// ──────────────────────────────────────────────────

// Create writes a queued record and pushes its ID under one lock, so no
// reader can observe the ID without the record.
func (m *Store) Create(_ context.Context, req task.Request) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	t := task.Task{
		Entity:  howa.Entity{CreatedAt: now, UpdatedAt: now},
		ID:      id.NewTaskID(),
		Status:  task.StatusQueued,
		Request: copyRequest(req),
	}
	m.tasks[t.ID.String()] = &record{task: t, expiresAt: m.expiry(now)}
	m.pushLocked(t.ID)

	return copyTask(&t), nil
}

// Get retrieves a task by ID.
func (m *Store) Get(_ context.Context, taskID id.TaskID) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.liveLocked(taskID)
	if !ok {
		return nil, howa.ErrTaskNotFound
	}
	return copyTask(&rec.task), nil
}

// MarkProcessing moves a non-terminal task to processing.
func (m *Store) MarkProcessing(_ context.Context, taskID id.TaskID) error {
	return m.transition(taskID, task.StatusProcessing, func(*task.Task) {})
}

// MarkCompleted stores the result and moves the task to completed.
func (m *Store) MarkCompleted(_ context.Context, taskID id.TaskID, result *task.Result) error {
	return m.transition(taskID, task.StatusCompleted, func(t *task.Task) {
		if result != nil {
			r := *result
			t.Result = &r
		}
	})
}

// MarkFailed stores the diagnostic and moves the task to failed.
func (m *Store) MarkFailed(_ context.Context, taskID id.TaskID, message string) error {
	return m.transition(taskID, task.StatusFailed, func(t *task.Task) {
		t.Error = message
	})
}

func (m *Store) transition(taskID id.TaskID, next task.Status, apply func(*task.Task)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.liveLocked(taskID)
	if !ok {
		return howa.ErrTaskNotFound
	}
	if !rec.task.Status.CanTransition(next) {
		return fmt.Errorf("howa/memory: mark %s on %s task %s: %w",
			next, rec.task.Status, taskID, howa.ErrInvalidTransition)
	}

	now := m.now().UTC()
	rec.task.Status = next
	rec.task.UpdatedAt = now
	apply(&rec.task)
	rec.expiresAt = m.expiry(now)
	return nil
}

// liveLocked returns the record if present and unexpired, deleting it
// lazily once its TTL has passed. Caller holds m.mu.
func (m *Store) liveLocked(taskID id.TaskID) (*record, bool) {
	key := taskID.String()
	rec, ok := m.tasks[key]
	if !ok {
		return nil, false
	}
	if !rec.expiresAt.IsZero() && !m.now().Before(rec.expiresAt) {
		delete(m.tasks, key)
		return nil, false
	}
	return rec, true
}

func (m *Store) expiry(now time.Time) time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(m.ttl)
}

// ──────────────────────────────────────────────────
// Queue
// ──────────────────────────────────────────────────

// Push appends the ID to the tail of the queue.
func (m *Store) Push(_ context.Context, taskID id.TaskID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushLocked(taskID)
	return nil
}

func (m *Store) pushLocked(taskID id.TaskID) {
	m.queue = append(m.queue, taskID)
	close(m.notify)
	m.notify = make(chan struct{})
}

// PopBlocking removes the head of the queue, waiting up to timeout for a
// push. Only one waiter wins each ID; the others go back to waiting.
func (m *Store) PopBlocking(ctx context.Context, timeout time.Duration) (id.TaskID, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			head := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return head, true, nil
		}
		wait := m.notify
		m.mu.Unlock()

		select {
		case <-wait:
		case <-timer.C:
			return id.Nil, false, nil
		case <-ctx.Done():
			return id.Nil, false, ctx.Err()
		}
	}
}

// Len returns the number of queued IDs.
func (m *Store) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// ── helpers ──

func copyRequest(r task.Request) task.Request {
	r.Audiences = append([]string(nil), r.Audiences...)
	return r
}

// copyTask returns a deep copy so callers can mutate without racing with
// the store.
func copyTask(t *task.Task) *task.Task {
	cp := *t
	cp.Request = copyRequest(t.Request)
	if t.Result != nil {
		r := *t.Result
		cp.Result = &r
	}
	return &cp
}
