// Package engine executes built pipelines with bounded concurrency,
// per-request deadlines and cooperative cancellation.
package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

// Runner is a built pipeline.
type Runner interface {
	Run(ctx context.Context, doc *document.Document) (*document.Document, error)
	Properties() config.Properties
}

// CompletionFunc observes every successful run exactly once.
type CompletionFunc func(props config.Properties, doc *document.Document)

// Engine runs pipelines on a fixed number of worker slots. Waiters acquire
// slots in FIFO order.
type Engine struct {
	threads    int
	sem        *semaphore.Weighted
	log        logr.Logger
	metrics    *Metrics
	onComplete CompletionFunc

	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	entropy *ulid.MonotonicEntropy
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreads sets the worker slot count. Values below one are ignored.
func WithThreads(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.threads = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithOnComplete registers the completion callback.
func WithOnComplete(fn CompletionFunc) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// New returns an engine. Threads default to the CPU count.
func New(opts ...Option) *Engine {
	e := &Engine{
		threads: runtime.NumCPU(),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	e.sem = semaphore.NewWeighted(int64(e.threads))
	return e
}

// Threads returns the worker slot count.
func (e *Engine) Threads() int { return e.threads }

// Run executes p on the calling goroutine without taking a worker slot.
func (e *Engine) Run(ctx context.Context, p Runner, doc *document.Document) (*document.Document, error) {
	start := time.Now()
	out, err := p.Run(ctx, doc)
	outcome := StateCompleted
	if err != nil {
		outcome, err = classify(ctx, err, e.newID(), 0)
	}
	e.metrics.ObserveRun(outcome, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if e.onComplete != nil {
		e.onComplete(p.Properties(), out)
	}
	return out, nil
}

// Submit queues doc for an asynchronous run of p. A positive timeout bounds
// queue wait plus execution. The returned future is already terminal when
// the engine is closed.
func (e *Engine) Submit(ctx context.Context, p Runner, doc *document.Document, timeout time.Duration) *Future {
	f := newFuture(e.newID())
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		f.finish(StateFailed, nil, ErrEngineClosed, nil)
		return f
	}
	e.wg.Add(1)
	e.mu.Unlock()

	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	f.cancel = cancel
	f.advance(StateCreated, StateQueued)

	// The caller learns about a deadline or cancellation as soon as it
	// happens, even if the stage keeps running.
	stop := context.AfterFunc(runCtx, func() {
		state, err := classify(runCtx, runCtx.Err(), f.id, timeout)
		if f.finish(state, nil, err, func() { e.metrics.ObserveRun(state, -1) }) {
			e.log.V(1).Info("run interrupted", "id", f.id, "doc", doc.ID, "state", state.String())
		}
	})

	go func() {
		defer e.wg.Done()
		defer cancel()
		defer stop()
		e.work(runCtx, f, p, doc, timeout)
	}()
	return f
}

func (e *Engine) work(ctx context.Context, f *Future, p Runner, doc *document.Document, timeout time.Duration) {
	queued := time.Now()
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return // the AfterFunc settles the future
	}
	defer e.sem.Release(1)
	e.metrics.ObserveQueueWait(time.Since(queued).Seconds())
	if !f.advance(StateQueued, StateRunning) {
		return
	}

	e.metrics.inflight.Inc()
	defer e.metrics.inflight.Dec()
	start := time.Now()
	out, err := p.Run(ctx, doc)
	elapsed := time.Since(start)

	if err != nil {
		state, err := classify(ctx, err, f.id, timeout)
		if f.finish(state, nil, err, func() { e.metrics.ObserveRun(state, elapsed.Seconds()) }) {
			e.log.V(1).Info("run finished", "id", f.id, "doc", doc.ID, "state", state.String(), "error", err.Error())
		}
		return
	}
	props := p.Properties()
	if f.finish(StateCompleted, out, nil, func() {
		e.metrics.ObserveRun(StateCompleted, elapsed.Seconds())
		if e.onComplete != nil {
			e.onComplete(props, out)
		}
	}) {
		e.log.V(1).Info("run finished", "id", f.id, "doc", doc.ID, "state", StateCompleted.String(), "elapsed", elapsed)
	}
}

// classify maps a run error to its terminal state.
func classify(ctx context.Context, err error, id string, timeout time.Duration) (State, error) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return StateTimedOut, &TimeoutError{ID: id, Timeout: timeout}
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		return StateCancelled, ErrCancelled
	default:
		return StateFailed, err
	}
}

// Close rejects new submissions and waits for in-flight runs to return.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}

func (e *Engine) newID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Now(), e.entropy).String()
}
