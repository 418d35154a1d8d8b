package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/howa/capability"
	"github.com/xraph/howa/capability/static"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

var errCollaborator = errors.New("collaborator unavailable")

func testRequest() task.Request {
	return task.Request{Theme: "感謝", Audiences: []string{"若者", "会社員"}}
}

type failingFinder struct{}

func (failingFinder) FindReference(context.Context, string) (capability.Reference, error) {
	return capability.Reference{}, errCollaborator
}

type failingPlanner struct{}

func (failingPlanner) Plan(context.Context, task.Request) (capability.Plan, error) {
	return capability.Plan{}, errCollaborator
}

type emptyGatherer struct{}

func (emptyGatherer) Gather(context.Context, string, capability.Reference) ([]string, error) {
	return nil, nil
}

// selectiveDrafter fails or panics for the listed material items and
// tracks the peak number of concurrent calls.
type selectiveDrafter struct {
	fail  map[string]bool
	panic map[string]bool
	delay time.Duration

	active atomic.Int32
	peak   atomic.Int32
}

func (d *selectiveDrafter) DraftOne(ctx context.Context, in capability.DraftInput) (string, error) {
	n := d.active.Add(1)
	defer d.active.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.panic[in.Material] {
		panic("drafter exploded")
	}
	if d.fail[in.Material] {
		return "", fmt.Errorf("draft %q: %w", in.Material, errCollaborator)
	}
	return static.Drafter{}.DraftOne(ctx, in)
}

type fixedSelector struct {
	text string
	err  error
}

func (s fixedSelector) Select(context.Context, string, []string) (string, error) {
	return s.text, s.err
}

type event struct {
	kind  string
	stage string
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []event
	ids    []id.TaskID
}

func (r *recordingEmitter) record(kind, stage string, taskID id.TaskID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{kind, stage})
	r.ids = append(r.ids, taskID)
}

func (r *recordingEmitter) EmitStageCompleted(_ context.Context, taskID id.TaskID, stage string, _ time.Duration) {
	r.record("completed", stage, taskID)
}

func (r *recordingEmitter) EmitStageFailed(_ context.Context, taskID id.TaskID, stage string, _ error) {
	r.record("failed", stage, taskID)
}

func (r *recordingEmitter) EmitStageDegraded(_ context.Context, taskID id.TaskID, stage string, _ error) {
	r.record("degraded", stage, taskID)
}

func (r *recordingEmitter) has(kind, stage string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.kind == kind && e.stage == stage {
			return true
		}
	}
	return false
}

func (r *recordingEmitter) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func materials(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("topic-%02d", i)
	}
	return out
}

func mustNew(caps capability.Set, opts ...Option) *Orchestrator {
	o, err := New(caps, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
