package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/howa"
	"github.com/xraph/howa/backoff"
	"github.com/xraph/howa/task"
)

// Pool runs several Loops as competing consumers of one queue.
type Pool struct {
	queue        task.Queue
	executor     *Executor
	concurrency  int
	pollTimeout  time.Duration
	errorBackoff backoff.Strategy
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
	loops   []*Loop
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of worker loops.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

// WithPollTimeout sets how long each blocking pop waits.
func WithPollTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.pollTimeout = d }
}

// WithErrorBackoff sets the strategy for pausing after store errors.
func WithErrorBackoff(s backoff.Strategy) PoolOption {
	return func(p *Pool) { p.errorBackoff = s }
}

// WithPoolConfig applies the worker settings of cfg.
func WithPoolConfig(cfg howa.Config) PoolOption {
	return func(p *Pool) {
		p.concurrency = cfg.Workers
		p.pollTimeout = cfg.PollTimeout
		p.errorBackoff = backoff.ForErrors(cfg.ErrorBackoff, cfg.ErrorBackoffMax)
	}
}

// NewPool creates a worker pool.
func NewPool(queue task.Queue, executor *Executor, logger *slog.Logger, opts ...PoolOption) *Pool {
	def := howa.DefaultConfig()
	p := &Pool{
		queue:        queue,
		executor:     executor,
		concurrency:  def.Workers,
		pollTimeout:  def.PollTimeout,
		errorBackoff: backoff.ForErrors(def.ErrorBackoff, def.ErrorBackoffMax),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency < 1 {
		p.concurrency = 1
	}
	return p
}

// Start launches the worker loops. It returns immediately.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	// Loops outlive the Start caller's context; Stop cancels them.
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.loops = p.loops[:0]

	p.logger.Info("worker pool starting",
		slog.Int("concurrency", p.concurrency),
		slog.Duration("poll_timeout", p.pollTimeout),
	)

	for range p.concurrency {
		l := NewLoop(p.queue, p.executor, p.pollTimeout, p.errorBackoff, p.logger)
		p.loops = append(p.loops, l)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = l.Run(ctx)
		}()
	}

	return nil
}

// Stop signals all loops to stop and waits for in-flight tasks to finish.
// Loops waiting on the queue return at once. If ctx ends first, in-flight
// tasks are aborted and marked failed.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	loops := p.loops
	p.cancel()
	p.mu.Unlock()

	p.logger.Info("worker pool stopping")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, aborting active tasks")
		for _, l := range loops {
			l.Abort()
		}
		<-done
	}

	return nil
}
