package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flarebyte/glossa/internal/stage"
)

// Error kinds. Every typed error below unwraps to one of them.
var (
	ErrUnknownStage       = errors.New("unknown stage")
	ErrCircularDependency = errors.New("circular dependency")
	ErrUnsatisfiable      = errors.New("unsatisfiable dependencies")
	ErrMissingRequirement = errors.New("missing requirement")
	ErrConstruction       = errors.New("stage construction failed")
	ErrStage              = errors.New("stage failed")
)

// UnknownStageError reports a requested name that is not registered.
type UnknownStageError struct {
	Name string
}

func (e *UnknownStageError) Error() string { return fmt.Sprintf("%s: %s", ErrUnknownStage, e.Name) }
func (e *UnknownStageError) Unwrap() error { return ErrUnknownStage }

// UnsatisfiableError reports a closure that cannot be ordered.
type UnsatisfiableError struct {
	Request   []string
	Remaining []string
}

func (e *UnsatisfiableError) Error() string {
	msg := fmt.Sprintf("%s for request [%s]", ErrUnsatisfiable, strings.Join(e.Request, ","))
	if len(e.Remaining) > 0 {
		msg += ": cannot order " + strings.Join(e.Remaining, ",")
	}
	return msg
}
func (e *UnsatisfiableError) Unwrap() error { return ErrUnsatisfiable }

// MissingRequirementError reports a stage whose requirements are not met by
// the stages before it.
type MissingRequirementError struct {
	Stage   string
	Missing []stage.Requirement
}

func (e *MissingRequirementError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		parts[i] = string(r)
	}
	return fmt.Sprintf("%s: %s requires %s", ErrMissingRequirement, e.Stage, strings.Join(parts, ","))
}
func (e *MissingRequirementError) Unwrap() error { return ErrMissingRequirement }

// ConstructionError wraps a factory failure.
type ConstructionError struct {
	Stage string
	Err   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrConstruction, e.Stage, e.Err)
}
func (e *ConstructionError) Unwrap() []error { return []error{ErrConstruction, e.Err} }

// StageError wraps an Annotate failure. It unwraps to both ErrStage and the
// cause, so callers can still match context.DeadlineExceeded.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %s: %v", ErrStage, e.Stage, e.Err) }
func (e *StageError) Unwrap() []error { return []error{ErrStage, e.Err} }

func circularError(steps int) error {
	return fmt.Errorf("%w: closure exceeded %d expansion steps", ErrCircularDependency, steps)
}
