package resolve

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/arborkit/arbor/tree"
)

// ProviderNotFoundError reports that no ancestor of a dependent publishes
// the requested type and the global fallback registry has no entry either.
//
// It is fatal to the resolving call and is never retried internally.
type ProviderNotFoundError struct {
	// Type is the requested value type.
	Type reflect.Type

	// Dependent identifies the node whose slot failed to resolve.
	Dependent tree.NodeID
}

// Error implements the error interface.
func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("no provider for %s reachable from node %d", e.Type, e.Dependent)
}

// NoDependencySlotsError reports that lifecycle gating was requested for a
// node that declared no slots. This is treated as a misconfiguration rather
// than a vacuous success, to catch misuse early.
type NoDependencySlotsError struct {
	Dependent tree.NodeID
}

// Error implements the error interface.
func (e *NoDependencySlotsError) Error() string {
	return fmt.Sprintf("node %d declared no dependency slots", e.Dependent)
}

// UnexpectedBindingTypeError reports that a cached slot binding holds a
// value whose runtime type does not match the slot's declared type. It
// indicates a bug in the engine or in a caller bypassing the typed API,
// not a recoverable condition.
type UnexpectedBindingTypeError struct {
	// Want is the slot's declared type.
	Want reflect.Type

	// Got is the runtime type actually found in the binding.
	Got reflect.Type

	Dependent tree.NodeID
}

// Error implements the error interface.
func (e *UnexpectedBindingTypeError) Error() string {
	return fmt.Sprintf("slot for %s on node %d bound to unexpected type %s", e.Want, e.Dependent, e.Got)
}

// IsProviderNotFound reports whether err is a ProviderNotFoundError.
// Uses errors.As to handle wrapped errors.
func IsProviderNotFound(err error) bool {
	var e *ProviderNotFoundError
	return errors.As(err, &e)
}

// IsNoDependencySlots reports whether err is a NoDependencySlotsError.
// Uses errors.As to handle wrapped errors.
func IsNoDependencySlots(err error) bool {
	var e *NoDependencySlotsError
	return errors.As(err, &e)
}
