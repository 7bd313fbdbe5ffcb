package dynamo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates a step produced a non-finite state and was
	// rolled back.
	ErrUnstable = errors.New("dynamo: step unstable (rolled back)")

	// ErrDimensionMismatch indicates a derivative of the wrong length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// StepError wraps an integration failure with where it happened.
type StepError struct {
	Time    float64
	Step    float64
	State   State
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t=%.4f h=%.4f: %v", e.Time, e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
