package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/xraph/howa"
	"github.com/xraph/howa/capability"
	"github.com/xraph/howa/id"
	"github.com/xraph/howa/task"
)

// tracerName is the instrumentation scope name for stage spans.
const tracerName = "github.com/xraph/howa/pipeline"

// StageEmitter receives stage lifecycle events. ext.Registry satisfies
// this interface.
type StageEmitter interface {
	EmitStageCompleted(ctx context.Context, taskID id.TaskID, stage string, elapsed time.Duration)
	EmitStageFailed(ctx context.Context, taskID id.TaskID, stage string, err error)
	EmitStageDegraded(ctx context.Context, taskID id.TaskID, stage string, reason error)
}

type nopEmitter struct{}

func (nopEmitter) EmitStageCompleted(context.Context, id.TaskID, string, time.Duration) {}
func (nopEmitter) EmitStageFailed(context.Context, id.TaskID, string, error) {}
func (nopEmitter) EmitStageDegraded(context.Context, id.TaskID, string, error) {}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTracer sets the tracer used for stage spans. Defaults to the global
// provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithEmitter sets the receiver of stage events.
func WithEmitter(e StageEmitter) Option {
	return func(o *Orchestrator) { o.emitter = e }
}

// WithDraftConcurrency caps concurrent drafting calls per run.
// Zero or less means one goroutine per material item.
func WithDraftConcurrency(n int) Option {
	return func(o *Orchestrator) { o.draftConcurrency = n }
}

// WithDraftRateLimit limits drafting calls to perSecond across every run
// of this orchestrator. Zero or less disables the limit.
func WithDraftRateLimit(perSecond float64) Option {
	return func(o *Orchestrator) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		burst := int(math.Ceil(perSecond))
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithConfig applies the pipeline settings of cfg.
func WithConfig(cfg howa.Config) Option {
	return func(o *Orchestrator) {
		WithDraftConcurrency(cfg.DraftConcurrency)(o)
		WithDraftRateLimit(cfg.DraftRateLimit)(o)
	}
}

// Orchestrator executes the stage table for one request at a time. It
// holds no per-run state and is safe for concurrent use by several
// worker loops.
type Orchestrator struct {
	caps    capability.Set
	stages  []StageDefinition
	logger  *slog.Logger
	tracer  trace.Tracer
	emitter StageEmitter

	draftConcurrency int
	limiter          *rate.Limiter
}

// New creates an Orchestrator bound to caps. Every collaborator must be set.
func New(caps capability.Set, opts ...Option) (*Orchestrator, error) {
	if missing := caps.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing collaborators: %v", missing)
	}
	o := &Orchestrator{
		caps:    caps,
		logger:  slog.Default(),
		emitter: nopEmitter{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	o.stages = o.defaultStages()
	return o, nil
}

// Stages returns the stage table in execution order.
func (o *Orchestrator) Stages() []StageDefinition {
	return slices.Clone(o.stages)
}

// Run executes every stage for req and returns the selected result.
// The error is non-nil only for contract violations and for a context
// that ended before a stage could start; collaborator failures degrade to
// fallbacks. The task ID attached with howa.WithTaskID, if any, labels
// emitted events.
func (o *Orchestrator) Run(ctx context.Context, req task.Request) (*task.Result, error) {
	st := NewState(req)
	taskID := howa.TaskIDFromContext(ctx)

	for _, def := range o.stages {
		if err := o.runStage(ctx, taskID, def, st); err != nil {
			return nil, err
		}
	}

	if st.Result == nil {
		return nil, fmt.Errorf("pipeline: %w: %s", howa.ErrStageOutputMissing, KeyResult)
	}
	return st.Result, nil
}

func (o *Orchestrator) runStage(ctx context.Context, taskID id.TaskID, def StageDefinition, st *State) (retErr error) {
	ctx, span := o.tracer.Start(ctx, "howa.stage."+def.Name,
		trace.WithAttributes(
			attribute.String("howa.task.id", taskID.String()),
			attribute.String("howa.stage", def.Name),
			attribute.String("howa.stage.mode", string(def.Mode)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if retErr != nil {
			span.RecordError(retErr)
			span.SetStatus(codes.Error, retErr.Error())
			o.emitter.EmitStageFailed(ctx, taskID, def.Name, retErr)
			return
		}
		span.SetStatus(codes.Ok, "")
		o.emitter.EmitStageCompleted(ctx, taskID, def.Name, time.Since(start))
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage %s: %w", def.Name, err)
	}
	for _, k := range def.Requires {
		if !st.Has(k) {
			return fmt.Errorf("stage %s: %w: %s", def.Name, howa.ErrStageInputMissing, k)
		}
	}

	delta, err := o.call(ctx, def, st)
	if err != nil {
		if def.Fallback == nil {
			return fmt.Errorf("stage %s: %w", def.Name, err)
		}
		o.degraded(ctx, taskID, def.Name, err)
		span.SetAttributes(attribute.Bool("howa.stage.degraded", true))
		delta = def.Fallback(st, err)
	}

	if def.Mode == ModeFanOut {
		if n := placeholders(delta.Candidates); n > 0 {
			o.degraded(ctx, taskID, def.Name,
				fmt.Errorf("%d of %d drafts failed", n, len(delta.Candidates)))
			span.SetAttributes(attribute.Int("howa.stage.placeholders", n))
		}
	}

	if err := checkDelta(def, st, delta); err != nil {
		return err
	}
	st.merge(delta)
	return nil
}

// call runs the stage function, converting a panic into an error so that
// the stage fallback applies.
func (o *Orchestrator) call(ctx context.Context, def StageDefinition, st *State) (d Delta, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("stage panicked",
				slog.String("stage", def.Name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			d, err = Delta{}, fmt.Errorf("panic in stage %s: %v", def.Name, r)
		}
	}()
	return def.Run(ctx, st)
}

func (o *Orchestrator) degraded(ctx context.Context, taskID id.TaskID, stage string, reason error) {
	o.logger.Warn("stage degraded",
		slog.String("task_id", taskID.String()),
		slog.String("stage", stage),
		slog.String("reason", reason.Error()),
	)
	o.emitter.EmitStageDegraded(ctx, taskID, stage, reason)
}

// checkDelta enforces the stage's produce contract against st.
func checkDelta(def StageDefinition, st *State, d Delta) error {
	produced := d.Keys()
	var errs []error
	for _, k := range def.Produces {
		if !slices.Contains(produced, k) {
			errs = append(errs, fmt.Errorf("stage %s: %w: %s", def.Name, howa.ErrStageOutputMissing, k))
		}
	}
	for _, k := range produced {
		switch {
		case !slices.Contains(def.Produces, k):
			errs = append(errs, fmt.Errorf("stage %s: %w: undeclared key %s", def.Name, howa.ErrStageOutputConflict, k))
		case st.Has(k):
			errs = append(errs, fmt.Errorf("stage %s: %w: %s", def.Name, howa.ErrStageOutputConflict, k))
		}
	}
	return errors.Join(errs...)
}
