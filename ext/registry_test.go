package ext_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/howa/ext"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// ──────────────────────────────────────────────────
// Test extensions
// ──────────────────────────────────────────────────

// allHooksExt implements every lifecycle hook for testing.
type allHooksExt struct {
	calls []string
}

func (e *allHooksExt) Name() string { return "all-hooks" }

func (e *allHooksExt) OnTaskEnqueued(_ context.Context, _ *task.Task) error {
	e.calls = append(e.calls, "OnTaskEnqueued")
	return nil
}

func (e *allHooksExt) OnTaskStarted(_ context.Context, _ *task.Task) error {
	e.calls = append(e.calls, "OnTaskStarted")
	return nil
}

func (e *allHooksExt) OnTaskCompleted(_ context.Context, _ *task.Task, _ time.Duration) error {
	e.calls = append(e.calls, "OnTaskCompleted")
	return nil
}

func (e *allHooksExt) OnTaskFailed(_ context.Context, _ *task.Task, _ error) error {
	e.calls = append(e.calls, "OnTaskFailed")
	return nil
}

func (e *allHooksExt) OnTaskDiscarded(_ context.Context, _ id.TaskID, _ string) error {
	e.calls = append(e.calls, "OnTaskDiscarded")
	return nil
}

func (e *allHooksExt) OnStageCompleted(_ context.Context, _ id.TaskID, _ string, _ time.Duration) error {
	e.calls = append(e.calls, "OnStageCompleted")
	return nil
}

func (e *allHooksExt) OnStageFailed(_ context.Context, _ id.TaskID, _ string, _ error) error {
	e.calls = append(e.calls, "OnStageFailed")
	return nil
}

func (e *allHooksExt) OnStageDegraded(_ context.Context, _ id.TaskID, _ string, _ error) error {
	e.calls = append(e.calls, "OnStageDegraded")
	return nil
}

func (e *allHooksExt) OnShutdown(_ context.Context) error {
	e.calls = append(e.calls, "OnShutdown")
	return nil
}

// taskOnlyExt only implements task-related hooks.
type taskOnlyExt struct {
	calls []string
}

func (e *taskOnlyExt) Name() string { return "task-only" }

func (e *taskOnlyExt) OnTaskEnqueued(_ context.Context, _ *task.Task) error {
	e.calls = append(e.calls, "OnTaskEnqueued")
	return nil
}

func (e *taskOnlyExt) OnTaskCompleted(_ context.Context, _ *task.Task, _ time.Duration) error {
	e.calls = append(e.calls, "OnTaskCompleted")
	return nil
}

// failingExt returns errors from hooks.
type failingExt struct{}

func (e *failingExt) Name() string { return "failing" }

func (e *failingExt) OnTaskEnqueued(_ context.Context, _ *task.Task) error {
	return errors.New("boom")
}

func (e *failingExt) OnShutdown(_ context.Context) error {
	return errors.New("shutdown boom")
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d calls, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ──────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────

func TestRegistry_RegisterDiscoversInterfaces(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	r.Register(&allHooksExt{})

	if got := len(r.Extensions()); got != 1 {
		t.Fatalf("expected 1 extension, got %d", got)
	}
	if got := r.Extensions()[0].Name(); got != "all-hooks" {
		t.Fatalf("expected name 'all-hooks', got %q", got)
	}
}

func TestRegistry_EmitFiresOnlyImplementors(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	to := &taskOnlyExt{}
	r.Register(all)
	r.Register(to)

	ctx := context.Background()
	tk := &task.Task{ID: id.NewTaskID()}

	// Both implement OnTaskEnqueued → both called.
	r.EmitTaskEnqueued(ctx, tk)
	assertCalls(t, all.calls, []string{"OnTaskEnqueued"})
	assertCalls(t, to.calls, []string{"OnTaskEnqueued"})

	// Only all implements OnTaskStarted → to not called.
	r.EmitTaskStarted(ctx, tk)
	assertCalls(t, all.calls, []string{"OnTaskEnqueued", "OnTaskStarted"})
	assertCalls(t, to.calls, []string{"OnTaskEnqueued"})
}

func TestRegistry_AllTaskHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	tk := &task.Task{ID: id.NewTaskID()}

	r.EmitTaskEnqueued(ctx, tk)
	r.EmitTaskStarted(ctx, tk)
	r.EmitTaskCompleted(ctx, tk, time.Second)
	r.EmitTaskFailed(ctx, tk, errors.New("fail"))
	r.EmitTaskDiscarded(ctx, tk.ID, "terminal")

	assertCalls(t, all.calls, []string{
		"OnTaskEnqueued", "OnTaskStarted", "OnTaskCompleted",
		"OnTaskFailed", "OnTaskDiscarded",
	})
}

func TestRegistry_AllStageHooksFire(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}
	r.Register(all)

	ctx := context.Background()
	taskID := id.NewTaskID()

	r.EmitStageCompleted(ctx, taskID, "plan", time.Second)
	r.EmitStageDegraded(ctx, taskID, "lookup-reference", errors.New("lookup failed"))
	r.EmitStageFailed(ctx, taskID, "draft", errors.New("input missing"))
	r.EmitShutdown(ctx)

	assertCalls(t, all.calls, []string{
		"OnStageCompleted", "OnStageDegraded", "OnStageFailed", "OnShutdown",
	})
}

func TestRegistry_HookErrorsLoggedNotPropagated(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	all := &allHooksExt{}

	// Register failing first, then all-hooks. Both should be called.
	r.Register(&failingExt{})
	r.Register(all)

	ctx := context.Background()
	r.EmitTaskEnqueued(ctx, &task.Task{})
	r.EmitShutdown(ctx)

	assertCalls(t, all.calls, []string{"OnTaskEnqueued", "OnShutdown"})
}

func TestRegistry_EmptyRegistryNoOp(_ *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ctx := context.Background()

	// None of these should panic or error.
	r.EmitTaskEnqueued(ctx, &task.Task{})
	r.EmitTaskStarted(ctx, &task.Task{})
	r.EmitTaskCompleted(ctx, &task.Task{}, time.Second)
	r.EmitTaskFailed(ctx, &task.Task{}, errors.New("x"))
	r.EmitTaskDiscarded(ctx, id.Nil, "missing")
	r.EmitStageCompleted(ctx, id.Nil, "s", time.Second)
	r.EmitStageFailed(ctx, id.Nil, "s", errors.New("x"))
	r.EmitStageDegraded(ctx, id.Nil, "s", errors.New("x"))
	r.EmitShutdown(ctx)
}

func TestRegistry_MultipleExtensionsOrderPreserved(t *testing.T) {
	r := ext.NewRegistry(slog.Default())
	ext1 := &allHooksExt{}
	ext2 := &allHooksExt{}
	r.Register(ext1)
	r.Register(ext2)

	r.EmitTaskEnqueued(context.Background(), &task.Task{})

	if len(ext1.calls) != 1 {
		t.Errorf("ext1: expected 1 call, got %d", len(ext1.calls))
	}
	if len(ext2.calls) != 1 {
		t.Errorf("ext2: expected 1 call, got %d", len(ext2.calls))
	}
}
