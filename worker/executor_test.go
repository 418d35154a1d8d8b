package worker_test

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/howa"
	"github.com/xraph/howa/capability/static"
	"github.com/xraph/howa/ext"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/middleware"
	"github.com/xraph/howa/pipeline"
	"github.com/xraph/howa/store/memory"
	"github.com/xraph/howa/task"
	"github.com/xraph/howa/worker"
)

// runnerFunc adapts a function to worker.Runner.
type runnerFunc func(ctx context.Context, req task.Request) (*task.Result, error)

func (f runnerFunc) Run(ctx context.Context, req task.Request) (*task.Result, error) {
	return f(ctx, req)
}

// lifecycleExt records task lifecycle hooks.
type lifecycleExt struct {
	mu    sync.Mutex
	calls []string
}

func (e *lifecycleExt) Name() string { return "lifecycle" }

func (e *lifecycleExt) add(s string) {
	e.mu.Lock()
	e.calls = append(e.calls, s)
	e.mu.Unlock()
}

func (e *lifecycleExt) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *lifecycleExt) OnTaskStarted(context.Context, *task.Task) error {
	e.add("started")
	return nil
}

func (e *lifecycleExt) OnTaskCompleted(context.Context, *task.Task, time.Duration) error {
	e.add("completed")
	return nil
}

func (e *lifecycleExt) OnTaskFailed(context.Context, *task.Task, error) error {
	e.add("failed")
	return nil
}

func (e *lifecycleExt) OnTaskDiscarded(_ context.Context, _ id.TaskID, reason string) error {
	e.add("discarded:" + reason)
	return nil
}

func newOrchestrator(t *testing.T) *pipeline.Orchestrator {
	t.Helper()
	o, err := pipeline.New(static.Set("電車で席を譲られた"))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return o
}

func setupExecutor(t *testing.T, runner worker.Runner) (*worker.Executor, *memory.Store, *lifecycleExt) {
	t.Helper()
	logger := slog.Default()
	s := memory.New()
	rec := &lifecycleExt{}
	extensions := ext.NewRegistry(logger)
	extensions.Register(rec)

	exec := worker.NewExecutor(s, runner, extensions, logger,
		middleware.Recover(logger),
		middleware.Logging(logger),
	)
	return exec, s, rec
}

func validRequest() task.Request {
	return task.Request{Theme: "感謝", Audiences: []string{"若者"}}
}

func assertCalls(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("lifecycle calls = %v, want %v", got, want)
	}
}

func TestExecutor_CompletesTask(t *testing.T) {
	exec, s, rec := setupExecutor(t, newOrchestrator(t))
	ctx := context.Background()

	created, err := s.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := exec.Process(ctx, created.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, _ := s.Get(ctx, created.ID)
	if got.Status != task.StatusCompleted {
		t.Fatalf("status = %s, want completed (error %q)", got.Status, got.Error)
	}
	if err := got.Result.Validate(); err != nil {
		t.Fatalf("stored result invalid: %v", err)
	}
	if got.Error != "" {
		t.Errorf("error = %q, want empty", got.Error)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("updated_at moved backwards")
	}
	assertCalls(t, rec.snapshot(), []string{"started", "completed"})
}

func TestExecutor_DiscardsMissingTask(t *testing.T) {
	var runs atomic.Int32
	exec, _, rec := setupExecutor(t, runnerFunc(func(context.Context, task.Request) (*task.Result, error) {
		runs.Add(1)
		return nil, nil
	}))

	if err := exec.Process(context.Background(), id.NewTaskID()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if runs.Load() != 0 {
		t.Error("pipeline ran for a missing task")
	}
	assertCalls(t, rec.snapshot(), []string{"discarded:" + worker.DiscardMissing})
}

func TestExecutor_DiscardsTerminalTask(t *testing.T) {
	tests := []struct {
		name  string
		setup func(ctx context.Context, s *memory.Store, taskID id.TaskID) error
	}{
		{"completed", func(ctx context.Context, s *memory.Store, taskID id.TaskID) error {
			return s.MarkCompleted(ctx, taskID, pipeline.FallbackResult(validRequest(), static.Finder{}.Reference))
		}},
		{"failed", func(ctx context.Context, s *memory.Store, taskID id.TaskID) error {
			return s.MarkFailed(ctx, taskID, "earlier failure")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var runs atomic.Int32
			exec, s, rec := setupExecutor(t, runnerFunc(func(context.Context, task.Request) (*task.Result, error) {
				runs.Add(1)
				return nil, nil
			}))
			ctx := context.Background()

			created, _ := s.Create(ctx, validRequest())
			if err := tt.setup(ctx, s, created.ID); err != nil {
				t.Fatalf("setup: %v", err)
			}
			before, _ := s.Get(ctx, created.ID)

			// Duplicate wake-up for a finished task.
			if err := exec.Process(ctx, created.ID); err != nil {
				t.Fatalf("Process: %v", err)
			}

			after, _ := s.Get(ctx, created.ID)
			if runs.Load() != 0 {
				t.Error("pipeline ran for a terminal task")
			}
			if !after.UpdatedAt.Equal(before.UpdatedAt) || after.Status != before.Status || after.Error != before.Error {
				t.Errorf("terminal task was written: before %+v after %+v", before, after)
			}
			assertCalls(t, rec.snapshot(), []string{"discarded:" + worker.DiscardTerminal})
		})
	}
}

func TestExecutor_InvalidRequest(t *testing.T) {
	var runs atomic.Int32
	exec, s, rec := setupExecutor(t, runnerFunc(func(context.Context, task.Request) (*task.Result, error) {
		runs.Add(1)
		return nil, nil
	}))
	ctx := context.Background()

	created, _ := s.Create(ctx, task.Request{Theme: "", Audiences: nil})
	if err := exec.Process(ctx, created.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, _ := s.Get(ctx, created.ID)
	if got.Status != task.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if !strings.HasPrefix(got.Error, "invalid request payload: ") {
		t.Errorf("error = %q, want invalid request payload diagnostic", got.Error)
	}
	if runs.Load() != 0 {
		t.Error("pipeline ran for an invalid request")
	}
	assertCalls(t, rec.snapshot(), []string{"failed"})
}

func TestExecutor_PipelineFailure(t *testing.T) {
	tests := []struct {
		name      string
		runner    runnerFunc
		wantError string
	}{
		{
			name: "contract violation",
			runner: func(context.Context, task.Request) (*task.Result, error) {
				return nil, fmt.Errorf("stage draft: %w: materials", howa.ErrStageInputMissing)
			},
			wantError: "stage input missing",
		},
		{
			name: "panic",
			runner: func(context.Context, task.Request) (*task.Result, error) {
				panic("orchestrator exploded")
			},
			wantError: "orchestrator exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec, s, rec := setupExecutor(t, tt.runner)
			ctx := context.Background()

			created, _ := s.Create(ctx, validRequest())
			if err := exec.Process(ctx, created.ID); err != nil {
				t.Fatalf("Process: %v", err)
			}

			got, _ := s.Get(ctx, created.ID)
			if got.Status != task.StatusFailed || got.Result != nil {
				t.Fatalf("task = %+v, want failed without result", got)
			}
			if !strings.Contains(got.Error, tt.wantError) {
				t.Errorf("error = %q, want it to mention %q", got.Error, tt.wantError)
			}
			if strings.Contains(got.Error, "goroutine") {
				t.Error("stack trace stored on the task")
			}
			assertCalls(t, rec.snapshot(), []string{"started", "failed"})
		})
	}
}

func TestExecutor_TaskIDInContext(t *testing.T) {
	var seen id.TaskID
	exec, s, _ := setupExecutor(t, runnerFunc(func(ctx context.Context, req task.Request) (*task.Result, error) {
		seen = howa.TaskIDFromContext(ctx)
		return pipeline.FallbackResult(req, static.Finder{}.Reference), nil
	}))
	ctx := context.Background()

	created, _ := s.Create(ctx, validRequest())
	if err := exec.Process(ctx, created.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if seen.String() != created.ID.String() {
		t.Errorf("runner saw task id %q, want %q", seen, created.ID)
	}
}
