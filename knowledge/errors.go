package knowledge

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMoveAvailable means every cell is either opened or a known mine.
	ErrNoMoveAvailable = errors.New("no move available")

	// ErrInvariantViolation is matched by every *InvariantError.
	ErrInvariantViolation = errors.New("knowledge invariant violated")

	// ErrInvalidObservation rejects observations that no board could produce.
	ErrInvalidObservation = errors.New("invalid observation")
)

// InvariantError reports a logic defect: a sentence whose count left the
// range 0..|cells|, or a cell classified as both mine and safe.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariantViolation, e.Op, e.Detail)
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}
