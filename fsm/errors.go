package fsm

import (
	"errors"
	"fmt"
)

// InvalidStateTransitionError reports that the guard predicate rejected a
// transition. The Update call that submitted the rejected state fails; any
// states still queued behind it are discarded, while transitions committed
// before it remain committed.
//
// Current and Desired carry the machine's state values at rejection time.
type InvalidStateTransitionError struct {
	Current any
	Desired any
}

// Error implements the error interface.
func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: %v -> %v", e.Current, e.Desired)
}

// IsInvalidTransition reports whether err is an InvalidStateTransitionError.
// Uses errors.As to handle wrapped errors.
func IsInvalidTransition(err error) bool {
	var e *InvalidStateTransitionError
	return errors.As(err, &e)
}
