package engine

import (
	"errors"
	"fmt"
	"time"
)

// Terminal run errors.
var (
	ErrTimeout      = errors.New("run timed out")
	ErrCancelled    = errors.New("run cancelled")
	ErrEngineClosed = errors.New("engine closed")
)

// TimeoutError reports a run that exceeded its deadline. The worker may
// still be mutating the document.
type TimeoutError struct {
	ID      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s: %s after %s", ErrTimeout, e.ID, e.Timeout)
	}
	return fmt.Sprintf("%s: %s", ErrTimeout, e.ID)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }
