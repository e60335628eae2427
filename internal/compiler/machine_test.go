package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doorMachine = `
machine: {
	name:    "door"
	initial: "closed"
	states: ["closed", "open", "locked"]
	transitions: {
		closed: ["open", "locked"]
		open:   ["closed"]
		locked: ["closed"]
	}
}
`

func TestCompileString_Valid(t *testing.T) {
	def, err := CompileString(doorMachine)
	require.NoError(t, err)

	assert.Equal(t, "door", def.Name)
	assert.Equal(t, "closed", def.Initial)
	assert.Equal(t, []string{"closed", "open", "locked"}, def.States)
	assert.Equal(t, []string{"open", "locked"}, def.Transitions["closed"])
}

func TestCompileString_TableGuard(t *testing.T) {
	def, err := CompileString(doorMachine)
	require.NoError(t, err)

	table := def.Table()
	assert.True(t, table.Allows("closed", "open"))
	assert.False(t, table.Allows("open", "locked"))
}

func TestCompileString_MissingMachine(t *testing.T) {
	_, err := CompileString(`other: {}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "machine struct is required")
}

func TestCompileString_MissingInitial(t *testing.T) {
	_, err := CompileString(`machine: { states: ["a"] }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial state is required")
}

func TestCompileString_MissingStates(t *testing.T) {
	_, err := CompileString(`machine: { initial: "a" }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "states list is required")
}

func TestCompileString_NameDefaults(t *testing.T) {
	def, err := CompileString(`machine: { initial: "a", states: ["a"] }`)
	require.NoError(t, err)
	assert.Equal(t, "machine", def.Name)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "door.cue")
	require.NoError(t, os.WriteFile(path, []byte(doorMachine), 0o644))

	def, err := CompileFile(path)
	require.NoError(t, err)
	assert.Equal(t, "door", def.Name)
}

func TestCompileFile_Missing(t *testing.T) {
	_, err := CompileFile(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
}

func TestValidate_InitialUndeclared(t *testing.T) {
	def := &MachineDef{
		Initial: "ghost",
		States:  []string{"a", "b"},
	}

	errs := def.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInitialUndeclared, errs[0].Code)
}

func TestValidate_UnknownTransitionTarget(t *testing.T) {
	def := &MachineDef{
		Initial:     "a",
		States:      []string{"a", "b"},
		Transitions: map[string][]string{"a": {"b", "ghost"}},
	}

	errs := def.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownTo, errs[0].Code)
}

func TestValidate_UnknownTransitionSource(t *testing.T) {
	def := &MachineDef{
		Initial:     "a",
		States:      []string{"a"},
		Transitions: map[string][]string{"ghost": {"a"}},
	}

	errs := def.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownFrom, errs[0].Code)
}

func TestValidate_DuplicateState(t *testing.T) {
	def := &MachineDef{
		Initial: "a",
		States:  []string{"a", "a"},
	}

	errs := def.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateState, errs[0].Code)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	def := &MachineDef{
		Initial: "",
		States:  nil,
	}

	errs := def.Validate()
	require.Len(t, errs, 2)
	codes := []string{errs[0].Code, errs[1].Code}
	assert.Contains(t, codes, ErrNoStates)
	assert.Contains(t, codes, ErrInitialEmpty)
}

func TestCompileString_RejectsUndeclaredTarget(t *testing.T) {
	_, err := CompileString(`
machine: {
	initial: "a"
	states: ["a"]
	transitions: { a: ["ghost"] }
}
`)
	require.Error(t, err)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrUnknownTo, verr.Code)
}
