package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for controller, plant and loop operations.
var (
	// ErrInvalidArgument indicates rejected construction arguments.
	ErrInvalidArgument = errors.New("dynamo: invalid argument")

	// ErrNonPositiveStep indicates a time step that is zero, negative or NaN.
	ErrNonPositiveStep = errors.New("dynamo: time step must be positive")

	// ErrInvalidLimits indicates output limits with min > max or a NaN bound.
	ErrInvalidLimits = errors.New("dynamo: invalid output limits")

	// ErrUnknownParam indicates a tuning parameter name that is not recognised.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrNoDCGain indicates a transfer function with a pole at z = 1.
	ErrNoDCGain = errors.New("dynamo: dc gain undefined (pole at z=1)")

	// ErrUnstable indicates the loop output diverged to NaN or Inf.
	ErrUnstable = errors.New("dynamo: simulation unstable (output diverged)")
)

// SimulationError wraps an error with loop context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
