package compiler

import "fmt"

// Validation error codes.
const (
	ErrInitialEmpty      = "E101" // initial state is empty
	ErrInitialUndeclared = "E102" // initial state not in states list
	ErrNoStates          = "E103" // states list is empty
	ErrDuplicateState    = "E104" // state declared twice
	ErrUnknownFrom       = "E105" // transition source not declared
	ErrUnknownTo         = "E106" // transition target not declared
)

// ValidationError represents a structural problem in a compiled machine
// definition.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled definition for structural errors: empty or
// undeclared initial state, duplicate states, and transitions referring to
// undeclared states. Returns all errors found (does not fail fast).
func (d *MachineDef) Validate() []ValidationError {
	var errs []ValidationError

	declared := make(map[string]bool, len(d.States))
	for _, s := range d.States {
		if declared[s] {
			errs = append(errs, ValidationError{
				Field:   "states",
				Message: fmt.Sprintf("state %q declared twice", s),
				Code:    ErrDuplicateState,
			})
		}
		declared[s] = true
	}
	if len(d.States) == 0 {
		errs = append(errs, ValidationError{
			Field:   "states",
			Message: "at least one state is required",
			Code:    ErrNoStates,
		})
	}

	switch {
	case d.Initial == "":
		errs = append(errs, ValidationError{
			Field:   "initial",
			Message: "initial state must not be empty",
			Code:    ErrInitialEmpty,
		})
	case !declared[d.Initial]:
		errs = append(errs, ValidationError{
			Field:   "initial",
			Message: fmt.Sprintf("initial state %q is not declared", d.Initial),
			Code:    ErrInitialUndeclared,
		})
	}

	for from, tos := range d.Transitions {
		if !declared[from] {
			errs = append(errs, ValidationError{
				Field:   "transitions",
				Message: fmt.Sprintf("transition source %q is not declared", from),
				Code:    ErrUnknownFrom,
			})
		}
		for _, to := range tos {
			if !declared[to] {
				errs = append(errs, ValidationError{
					Field:   "transitions",
					Message: fmt.Sprintf("transition target %q from %q is not declared", to, from),
					Code:    ErrUnknownTo,
				})
			}
		}
	}

	return errs
}
