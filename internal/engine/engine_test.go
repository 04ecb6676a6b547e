package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarebyte/glossa/internal/config"
	"github.com/flarebyte/glossa/internal/document"
)

type runFunc func(ctx context.Context, doc *document.Document) (*document.Document, error)

type fakeRunner struct {
	run   runFunc
	props config.Properties
}

func (r fakeRunner) Run(ctx context.Context, doc *document.Document) (*document.Document, error) {
	return r.run(ctx, doc)
}

func (r fakeRunner) Properties() config.Properties { return r.props }

func marker() fakeRunner {
	return fakeRunner{
		props: config.FromMap(map[string]string{"annotators": "mark"}),
		run: func(_ context.Context, doc *document.Document) (*document.Document, error) {
			doc.SetMeta("mark", doc.ID)
			return doc, nil
		},
	}
}

// blocking waits for ctx or release and reports which came first.
func blocking(release <-chan struct{}, started chan<- struct{}) fakeRunner {
	return fakeRunner{run: func(ctx context.Context, doc *document.Document) (*document.Document, error) {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-ctx.Done():
			return doc, ctx.Err()
		case <-release:
			return doc, nil
		}
	}}
}

func waitFor(t *testing.T, f *Future) (*document.Document, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	doc, err := f.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "future %s never settled", f.ID())
	return doc, err
}

func TestSubmitCompletes(t *testing.T) {
	var calls atomic.Int32
	var seen config.Properties
	e := New(WithThreads(2), WithOnComplete(func(p config.Properties, doc *document.Document) {
		calls.Add(1)
		seen = p
	}))
	defer e.Close()

	f := e.Submit(t.Context(), marker(), document.New("d1", "text"), 0)
	doc, err := waitFor(t, f)
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.Meta["mark"])
	assert.Equal(t, StateCompleted, f.State())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "mark", seen.Get("annotators", ""))
	assert.Len(t, f.ID(), 26)
}

func TestSubmitIDsAreUnique(t *testing.T) {
	e := New(WithThreads(4))
	defer e.Close()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		f := e.Submit(t.Context(), marker(), document.New("d", "x"), 0)
		require.False(t, seen[f.ID()], "duplicate id %s", f.ID())
		seen[f.ID()] = true
	}
}

func TestFailureIsReported(t *testing.T) {
	bad := errors.New("bad input")
	var calls atomic.Int32
	e := New(WithThreads(1), WithOnComplete(func(config.Properties, *document.Document) { calls.Add(1) }))
	defer e.Close()

	f := e.Submit(t.Context(), fakeRunner{run: func(context.Context, *document.Document) (*document.Document, error) {
		return nil, bad
	}}, document.New("d", "x"), 0)
	doc, err := waitFor(t, f)
	require.ErrorIs(t, err, bad)
	assert.Nil(t, doc)
	assert.Equal(t, StateFailed, f.State())
	assert.Zero(t, calls.Load())
}

func TestTimeoutFreesSlotForQueuedRun(t *testing.T) {
	e := New(WithThreads(1))
	defer e.Close()

	slow := e.Submit(t.Context(), blocking(nil, nil), document.New("slow", "x"), 20*time.Millisecond)
	next := e.Submit(t.Context(), marker(), document.New("next", "y"), 0)

	_, err := waitFor(t, slow)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, slow.ID(), te.ID)
	assert.Equal(t, 20*time.Millisecond, te.Timeout)
	assert.Equal(t, StateTimedOut, slow.State())

	doc, err := waitFor(t, next)
	require.NoError(t, err)
	assert.Equal(t, "next", doc.Meta["mark"])
}

func TestTimeoutIsImmediateForUncooperativeStage(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	e := New(WithThreads(1), WithOnComplete(func(config.Properties, *document.Document) { calls.Add(1) }))

	stubborn := fakeRunner{run: func(_ context.Context, doc *document.Document) (*document.Document, error) {
		<-release
		return doc, nil
	}}
	f := e.Submit(t.Context(), stubborn, document.New("d", "x"), 10*time.Millisecond)
	_, err := waitFor(t, f)
	require.ErrorIs(t, err, ErrTimeout)

	close(release)
	require.NoError(t, e.Close())
	assert.Equal(t, StateTimedOut, f.State())
	assert.Zero(t, calls.Load(), "late success must not be reported")
}

func TestTimeoutCoversQueueWait(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	e := New(WithThreads(1))
	defer e.Close()

	holder := e.Submit(t.Context(), blocking(release, started), document.New("holder", "x"), 0)
	<-started
	queued := e.Submit(t.Context(), marker(), document.New("queued", "y"), 10*time.Millisecond)

	_, err := waitFor(t, queued)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StateTimedOut, queued.State())

	close(release)
	_, err = waitFor(t, holder)
	require.NoError(t, err)
}

func TestCancelRunning(t *testing.T) {
	started := make(chan struct{}, 1)
	e := New(WithThreads(1))
	defer e.Close()

	f := e.Submit(t.Context(), blocking(nil, started), document.New("d", "x"), 0)
	<-started
	f.Cancel()
	_, err := waitFor(t, f)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, f.State())

	// A second cancel is a no-op.
	f.Cancel()
	assert.Equal(t, StateCancelled, f.State())
}

func TestCancelQueued(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var ran atomic.Bool
	e := New(WithThreads(1))
	defer e.Close()

	holder := e.Submit(t.Context(), blocking(release, started), document.New("holder", "x"), 0)
	<-started
	queued := e.Submit(t.Context(), fakeRunner{run: func(_ context.Context, doc *document.Document) (*document.Document, error) {
		ran.Store(true)
		return doc, nil
	}}, document.New("queued", "y"), 0)
	queued.Cancel()

	_, err := waitFor(t, queued)
	require.ErrorIs(t, err, ErrCancelled)
	close(release)
	_, err = waitFor(t, holder)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.False(t, ran.Load(), "cancelled run must not start")
}

func TestParentContextCancel(t *testing.T) {
	started := make(chan struct{}, 1)
	e := New(WithThreads(1))
	defer e.Close()

	ctx, cancel := context.WithCancel(t.Context())
	f := e.Submit(ctx, blocking(nil, started), document.New("d", "x"), time.Minute)
	<-started
	cancel()
	_, err := waitFor(t, f)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, f.State())
}

func TestWaitContextDoesNotCancelRun(t *testing.T) {
	release := make(chan struct{})
	e := New(WithThreads(1))
	defer e.Close()

	f := e.Submit(t.Context(), blocking(release, nil), document.New("d", "x"), 0)
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.State().IsTerminal())

	close(release)
	_, err = waitFor(t, f)
	require.NoError(t, err)
}

func TestBoundedConcurrency(t *testing.T) {
	const threads = 3
	var cur, peak atomic.Int32
	e := New(WithThreads(threads))
	defer e.Close()

	r := fakeRunner{run: func(_ context.Context, doc *document.Document) (*document.Document, error) {
		n := cur.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		cur.Add(-1)
		return doc, nil
	}}
	futures := make([]*Future, 30)
	for i := range futures {
		futures[i] = e.Submit(t.Context(), r, document.New("d", "x"), 0)
	}
	for _, f := range futures {
		_, err := waitFor(t, f)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, peak.Load(), int32(threads))
	assert.Equal(t, threads, e.Threads())
}

func TestRunsAreIsolated(t *testing.T) {
	e := New(WithThreads(8))
	defer e.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			doc, err := waitFor(t, e.Submit(t.Context(), marker(), document.New(id, "x"), 0))
			if assert.NoError(t, err) {
				assert.Equal(t, id, doc.Meta["mark"])
			}
		}(i)
	}
	wg.Wait()
}

func TestClose(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	e := New(WithThreads(1))

	inflight := e.Submit(t.Context(), blocking(release, started), document.New("d", "x"), 0)
	<-started
	closed := make(chan struct{})
	go func() {
		_ = e.Close()
		close(closed)
	}()

	// Close waits for the in-flight run.
	select {
	case <-closed:
		t.Fatalf("Close returned with a run in flight")
	case <-time.After(10 * time.Millisecond):
	}
	close(release)
	<-closed
	_, err := waitFor(t, inflight)
	require.NoError(t, err)

	late := e.Submit(t.Context(), marker(), document.New("late", "x"), 0)
	_, err = waitFor(t, late)
	require.ErrorIs(t, err, ErrEngineClosed)
	assert.Equal(t, StateFailed, late.State())
	require.NoError(t, e.Close(), "Close is idempotent")
}

func TestRunSync(t *testing.T) {
	var calls atomic.Int32
	e := New(WithOnComplete(func(config.Properties, *document.Document) { calls.Add(1) }))
	defer e.Close()

	doc, err := e.Run(t.Context(), marker(), document.New("sync", "x"))
	require.NoError(t, err)
	assert.Equal(t, "sync", doc.Meta["mark"])
	assert.Equal(t, int32(1), calls.Load())

	ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond)
	defer cancel()
	_, err = e.Run(ctx, blocking(nil, nil), document.New("slow", "x"))
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	m.MustRegister(reg)
	e := New(WithThreads(1), WithMetrics(m))

	_, err := waitFor(t, e.Submit(t.Context(), marker(), document.New("a", "x"), 0))
	require.NoError(t, err)
	_, err = waitFor(t, e.Submit(t.Context(), blocking(nil, nil), document.New("b", "x"), 5*time.Millisecond))
	require.Error(t, err)
	require.NoError(t, e.Close())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("timed_out")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "glossa_engine_runs_total"))
}
