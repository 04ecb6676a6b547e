package engine

import "fmt"

// State is the lifecycle position of one submitted run.
type State int32

const (
	StateCreated State = iota
	StateQueued
	StateRunning
	StateCompleted
	StateFailed
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateCancelled:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateCreated:
		return to == StateQueued || to == StateFailed || to == StateCancelled
	case StateQueued:
		return to == StateRunning || to == StateTimedOut || to == StateCancelled || to == StateFailed
	case StateRunning:
		return to.IsTerminal()
	default:
		return false
	}
}
