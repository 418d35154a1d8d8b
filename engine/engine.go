package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/howa"
	"github.com/xraph/howa/capability"
	"github.com/xraph/howa/ext"
	"github.com/xraph/howa/id"
	mw "github.com/xraph/howa/middleware"
	"github.com/xraph/howa/observability"
	"github.com/xraph/howa/pipeline"
	"github.com/xraph/howa/task"
	"github.com/xraph/howa/worker"
)

// instrumentationName scopes the engine's tracer and meter.
const instrumentationName = "github.com/xraph/howa"

// ext.Registry delivers pipeline stage events to extensions.
var _ pipeline.StageEmitter = (*ext.Registry)(nil)

// Receipt is returned by Submit.
type Receipt struct {
	TaskID id.TaskID   `json:"taskId"`
	Status task.Status `json:"status"`
}

// StatusView is the client-facing projection of a task.
type StatusView struct {
	TaskID    id.TaskID    `json:"taskId"`
	Status    task.Status  `json:"status"`
	Result    *task.Result `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Engine accepts requests, runs worker loops, and answers status queries.
type Engine struct {
	config       howa.Config
	backend      task.Backend
	extensions   *ext.Registry
	orchestrator *pipeline.Orchestrator
	pool         *worker.Pool
	mws          []mw.Middleware
	logger       *slog.Logger

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	pendingExts []ext.Extension
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration.
func WithConfig(cfg howa.Config) Option {
	return func(eng *Engine) { eng.config = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.pendingExts = append(eng.pendingExts, e) }
}

// WithMiddleware adds middleware after the default chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithTracerProvider sets a custom OTel TracerProvider for task and stage
// spans. If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware and the observability extension. If not set, the global
// otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// New builds an Engine on backend with the given collaborators.
func New(backend task.Backend, caps capability.Set, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, howa.ErrNoBackend
	}

	eng := &Engine{
		config:  howa.DefaultConfig(),
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if err := eng.config.Validate(); err != nil {
		return nil, err
	}

	eng.extensions = ext.NewRegistry(eng.logger)

	// Build tracing and metrics (custom provider or global).
	var (
		tracingMw mw.Middleware
		metricsMw mw.Middleware
		obsExt    *observability.MetricsExtension
	)
	pipelineOpts := []pipeline.Option{
		pipeline.WithConfig(eng.config),
		pipeline.WithLogger(eng.logger),
		pipeline.WithEmitter(eng.extensions),
	}
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer(instrumentationName)
		tracingMw = mw.TracingWithTracer(tracer)
		pipelineOpts = append(pipelineOpts, pipeline.WithTracer(tracer))
	} else {
		tracingMw = mw.Tracing()
	}
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter(instrumentationName + "/observability"))
	} else {
		metricsMw = mw.Metrics()
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)
	for _, e := range eng.pendingExts {
		eng.extensions.Register(e)
	}

	orch, err := pipeline.New(caps, pipelineOpts...)
	if err != nil {
		return nil, err
	}
	eng.orchestrator = orch

	// Default middleware stack: recover → tracing → metrics → logging → timeout.
	allMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
		mw.Timeout(eng.logger, eng.config.TaskTimeout),
	}
	allMws = append(allMws, eng.mws...)

	executor := worker.NewExecutor(backend, orch, eng.extensions, eng.logger, allMws...)
	eng.pool = worker.NewPool(backend, executor, eng.logger, worker.WithPoolConfig(eng.config))

	return eng, nil
}

// Submit validates req, stores it as a queued task and enqueues it.
// Validation errors wrap howa.ErrInvalidRequest and create nothing;
// infrastructure errors wrap howa.ErrStoreUnavailable.
func (eng *Engine) Submit(ctx context.Context, req task.Request) (*Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := eng.backend.Create(ctx, req)
	if err != nil {
		if !errors.Is(err, howa.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", howa.ErrStoreUnavailable, err)
		}
		return nil, err
	}

	eng.extensions.EmitTaskEnqueued(ctx, t)
	eng.logger.Debug("task submitted",
		slog.String("task_id", t.ID.String()),
		slog.String("theme", req.Theme),
	)
	return &Receipt{TaskID: t.ID, Status: t.Status}, nil
}

// Status returns the current view of a task. An unknown, expired or
// malformed ID yields howa.ErrTaskNotFound. A stored result that fails
// validation is reported as absent.
func (eng *Engine) Status(ctx context.Context, taskID string) (*StatusView, error) {
	tid, err := id.ParseTaskID(taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", howa.ErrTaskNotFound, err)
	}

	t, err := eng.backend.Get(ctx, tid)
	if err != nil {
		if !errors.Is(err, howa.ErrTaskNotFound) && !errors.Is(err, howa.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", howa.ErrStoreUnavailable, err)
		}
		return nil, err
	}

	view := &StatusView{
		TaskID:    t.ID,
		Status:    t.Status,
		Result:    t.Result,
		Error:     t.Error,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if view.Result != nil {
		if verr := view.Result.Validate(); verr != nil {
			eng.logger.Warn("stored result failed validation",
				slog.String("task_id", t.ID.String()),
				slog.String("error", verr.Error()),
			)
			view.Result = nil
		}
	}
	return view, nil
}

// Start checks the backend and launches the worker loops.
func (eng *Engine) Start(ctx context.Context) error {
	if err := eng.backend.Ping(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	return eng.pool.Start(ctx)
}

// Stop stops the worker loops, waiting for in-flight tasks up to
// Config.ShutdownTimeout when ctx has no earlier deadline.
func (eng *Engine) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok && eng.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.config.ShutdownTimeout)
		defer cancel()
	}

	err := eng.pool.Stop(ctx)
	eng.extensions.EmitShutdown(ctx)
	return err
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Orchestrator returns the pipeline orchestrator.
func (eng *Engine) Orchestrator() *pipeline.Orchestrator { return eng.orchestrator }

// Config returns the engine configuration.
func (eng *Engine) Config() howa.Config { return eng.config }
