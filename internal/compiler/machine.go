// Package compiler turns declarative CUE machine definitions into
// transition tables.
//
// A definition looks like:
//
//	machine: {
//		name:    "door"
//		initial: "closed"
//		states: ["closed", "open", "locked"]
//		transitions: {
//			closed: ["open", "locked"]
//			open:   ["closed"]
//			locked: ["closed"]
//		}
//	}
//
// Compilation uses the CUE SDK's Go API directly (not a CLI subprocess)
// and reports positioned errors for malformed definitions. Structural
// checks that CUE cannot express cheaply (undeclared transition targets,
// duplicate states) run in Validate.
package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/arborkit/arbor/fsm"
)

// MachineDef is a compiled machine definition.
type MachineDef struct {
	// Name labels the machine; optional, defaults to "machine".
	Name string

	// Initial is the machine's required starting state.
	Initial string

	// States lists every declared state, in declaration order.
	States []string

	// Transitions maps each state to its reachable states, in declaration
	// order. States absent from the map allow no outgoing transitions.
	Transitions map[string][]string
}

// Table returns the definition's transition table.
func (d *MachineDef) Table() fsm.Table[string] {
	t := make(fsm.Table[string], len(d.Transitions))
	for from, tos := range d.Transitions {
		t[from] = append([]string(nil), tos...)
	}
	return t
}

// CompileFile reads and compiles a machine definition from a CUE file.
// The compiled definition is also validated.
func CompileFile(path string) (*MachineDef, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read machine definition: %w", err)
	}
	return CompileString(string(src))
}

// CompileString compiles a machine definition from CUE source. The source
// must contain a top-level "machine" struct. The compiled definition is
// also validated.
func CompileString(src string) (*MachineDef, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	mv := v.LookupPath(cue.ParsePath("machine"))
	if !mv.Exists() {
		return nil, &CompileError{Field: "machine", Message: "top-level machine struct is required"}
	}

	def, err := CompileMachine(mv)
	if err != nil {
		return nil, err
	}
	if errs := def.Validate(); len(errs) > 0 {
		return nil, errs[0]
	}
	return def, nil
}

// CompileMachine parses a CUE value into a MachineDef. The value should be
// the machine struct itself. No structural validation happens here; call
// Validate on the result.
func CompileMachine(v cue.Value) (*MachineDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &MachineDef{
		Name:        "machine",
		Transitions: make(map[string][]string),
	}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		def.Name = name
	}

	initialVal := v.LookupPath(cue.ParsePath("initial"))
	if !initialVal.Exists() {
		return nil, &CompileError{Field: "initial", Message: "initial state is required", Pos: v.Pos()}
	}
	initial, err := initialVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	def.Initial = initial

	statesVal := v.LookupPath(cue.ParsePath("states"))
	if !statesVal.Exists() {
		return nil, &CompileError{Field: "states", Message: "states list is required", Pos: v.Pos()}
	}
	def.States, err = stringList(statesVal)
	if err != nil {
		return nil, err
	}

	transVal := v.LookupPath(cue.ParsePath("transitions"))
	if transVal.Exists() {
		iter, err := transVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			from := iter.Selector().Unquoted()
			tos, err := stringList(iter.Value())
			if err != nil {
				return nil, err
			}
			def.Transitions[from] = tos
		}
	}

	return def, nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError is a positioned machine-definition compilation error.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return firstErr
}
