package engine

import (
	"context"
	"sync/atomic"

	"github.com/flarebyte/glossa/internal/document"
)

// Future is the handle of one submitted run.
type Future struct {
	id     string
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	// written once by the transition winner before done is closed
	doc *document.Document
	err error
}

func newFuture(id string) *Future {
	return &Future{id: id, done: make(chan struct{}), cancel: func() {}}
}

// ID returns the run identifier.
func (f *Future) ID() string { return f.id }

// State returns the current lifecycle state.
func (f *Future) State() State { return State(f.state.Load()) }

// Done is closed once the run reaches a terminal state.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the run is terminal or ctx is done. A done ctx only
// stops waiting; use Cancel to stop the run.
func (f *Future) Wait(ctx context.Context) (*document.Document, error) {
	select {
	case <-f.done:
		return f.doc, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel stops the run. It has no effect once the run is terminal.
func (f *Future) Cancel() {
	f.finish(StateCancelled, nil, ErrCancelled, nil)
	f.cancel()
}

// advance moves a non-terminal run forward.
func (f *Future) advance(from, to State) bool {
	if !isAllowedTransition(from, to) {
		return false
	}
	return f.state.CompareAndSwap(int32(from), int32(to))
}

// finish moves the run to a terminal state. Only the first caller wins;
// before runs between the transition and the release of waiters.
func (f *Future) finish(to State, doc *document.Document, err error, before func()) bool {
	for {
		cur := f.State()
		if !isAllowedTransition(cur, to) {
			return false
		}
		if f.state.CompareAndSwap(int32(cur), int32(to)) {
			break
		}
	}
	f.doc, f.err = doc, err
	if before != nil {
		before()
	}
	close(f.done)
	return true
}
