package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhase indicates a cursor outside the defined phases.
	ErrInvalidPhase = errors.New("sim: invalid phase")

	// ErrInvalidParams indicates parameters the simulator cannot run with.
	ErrInvalidParams = errors.New("sim: invalid parameters")
)

type InvalidPhaseError struct {
	Phase Phase
}

func (e InvalidPhaseError) Error() string {
	return fmt.Sprintf("sim: invalid phase %d", int(e.Phase))
}

func (e InvalidPhaseError) Is(target error) bool {
	return target == ErrInvalidPhase
}

// TickError wraps an error that aborted a tick.
type TickError struct {
	Tick    int
	Cursor  Cursor
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("sim: tick %d aborted in %s at %d: %v", e.Tick, e.Cursor.Phase, e.Cursor.Index, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
