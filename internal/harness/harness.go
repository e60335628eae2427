// Package harness executes conformance scenarios against a fresh
// resolution realm and state machine, recording a deterministic trace.
//
// Each scenario runs in isolation: its own tree, its own Realm, its own
// logical clock, and an in-memory journal. The recorded trace is journaled
// and read back, so every run also exercises the journal round trip, and
// the canonical snapshot is what golden tests compare.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/arborkit/arbor/fsm"
	"github.com/arborkit/arbor/internal/compiler"
	"github.com/arborkit/arbor/internal/journal"
	"github.com/arborkit/arbor/internal/testutil"
	"github.com/arborkit/arbor/internal/trace"
	"github.com/arborkit/arbor/resolve"
	"github.com/arborkit/arbor/tree"
)

// DefaultToken is the trace token used when a scenario does not fix one.
const DefaultToken = "test-run-default"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step and assertion succeeded.
	Pass bool

	// Failures lists assertion and step failures. Empty when Pass.
	Failures []string

	// Final is the machine's final state; empty when the scenario has no
	// machine.
	Final string

	// Snapshot is the recorded trace, read back from the journal.
	Snapshot *trace.Snapshot
}

func (r *Result) fail(format string, args ...any) {
	r.Pass = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run executes a scenario and returns its result. Infrastructure problems
// (bad scenario, journal failure) return an error; step and assertion
// failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	jnl, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer jnl.Close()

	run, err := newRun(scenario)
	if err != nil {
		return nil, err
	}

	result := &Result{Pass: true}
	for i, step := range scenario.Steps {
		if err := run.execute(step); err != nil {
			result.fail("step %d: %v", i+1, err)
		}
	}

	// Journal round trip: the snapshot is built from what was read back,
	// not from the in-memory recorder.
	ctx := context.Background()
	if err := jnl.WriteTrace(ctx, run.recorder); err != nil {
		return nil, fmt.Errorf("journal trace: %w", err)
	}
	events, err := jnl.ReadTrace(ctx, run.recorder.Token())
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	result.Snapshot = &trace.Snapshot{
		Label:  scenario.Name,
		Token:  run.recorder.Token(),
		Events: events,
	}
	if run.machine != nil {
		result.Final = run.machine.Current()
	}

	for i, a := range scenario.Assertions {
		if err := run.assert(a, result); err != nil {
			result.fail("assertion %d: %v", i+1, err)
		}
	}
	return result, nil
}

// run is the per-scenario execution state.
type run struct {
	scenario *Scenario
	recorder *trace.Recorder
	realm    *resolve.Realm
	machine  *fsm.Machine[string]
	nodes    map[string]*testutil.TreeNode
	names    map[tree.NodeID]string
	types    *typeRegistry
	lastErr  error
}

func newRun(scenario *Scenario) (*run, error) {
	token := scenario.Token
	if token == "" {
		token = DefaultToken
	}

	r := &run{
		scenario: scenario,
		recorder: trace.NewRecorder(trace.NewClock(), token),
		nodes:    make(map[string]*testutil.TreeNode),
		names:    make(map[tree.NodeID]string),
		types:    newTypeRegistry(),
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	r.realm = resolve.NewRealm(
		resolve.WithLogger(quiet),
		resolve.WithHooks(resolve.Hooks{
			OnBind: func(dep tree.NodeID, typ reflect.Type, provider tree.NodeID, source resolve.BindSource) {
				r.recorder.Record(trace.Event{
					Kind:      trace.KindBind,
					Node:      int64(dep),
					ValueType: r.types.nameOf(typ),
					Provider:  int64(provider),
					Source:    string(source),
				})
			},
			OnPublish: func(provider tree.NodeID) {
				r.recorder.Record(trace.Event{Kind: trace.KindPublish, Node: int64(provider)})
			},
			OnReady: func(dep tree.NodeID) {
				r.recorder.Record(trace.Event{Kind: trace.KindReady, Node: int64(dep)})
			},
		}),
	)

	builder := testutil.NewTreeBuilder()
	for _, decl := range scenario.Nodes {
		var parent *testutil.TreeNode
		if decl.Parent != "" {
			parent = builder.Node(decl.Parent)
		}
		n := builder.Add(decl.Name, parent)
		r.nodes[decl.Name] = n
		r.names[n.ID()] = decl.Name

		for _, typeName := range decl.Provides {
			typ, val := r.types.instance(typeName)
			r.realm.ProvideType(n, typ, val)
		}
		for _, typeName := range decl.Wants {
			r.realm.WantType(n, r.types.typeFor(typeName))
		}
	}

	for _, typeName := range scenario.Globals {
		typ, val := r.types.instance(typeName)
		r.realm.RegisterGlobalType(typ, val)
	}

	if err := r.buildMachine(quiet); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *run) buildMachine(logger *slog.Logger) error {
	var initial string
	var table fsm.Table[string]

	switch {
	case r.scenario.Machine != nil:
		initial = r.scenario.Machine.Initial
		if len(r.scenario.Machine.Transitions) > 0 {
			table = make(fsm.Table[string])
			for from, tos := range r.scenario.Machine.Transitions {
				table[from] = tos
			}
		}
	case r.scenario.MachineFile != "":
		def, err := compiler.CompileFile(r.machinePath())
		if err != nil {
			return fmt.Errorf("compile machine: %w", err)
		}
		initial = def.Initial
		table = def.Table()
	default:
		return nil
	}

	prev := ""
	opts := []fsm.MachineOption[string]{
		fsm.WithMachineLogger[string](logger),
		fsm.WithObserver[string](func(s string) {
			r.recorder.Record(trace.Event{Kind: trace.KindTransition, From: prev, To: s})
			prev = s
		}),
	}
	if table != nil {
		opts = append(opts, fsm.WithGuard[string](table.Guard()))
	}
	r.machine = fsm.New(initial, opts...)
	return nil
}

func (r *run) machinePath() string {
	if r.scenario.dir == "" {
		return r.scenario.MachineFile
	}
	return r.scenario.dir + "/" + r.scenario.MachineFile
}

func (r *run) node(name string) (*testutil.TreeNode, error) {
	n, ok := r.nodes[name]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", name)
	}
	return n, nil
}

// execute runs one step, checking its error expectation.
func (r *run) execute(step Step) error {
	err := r.perform(step)

	if step.ExpectError == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected %s error, got success", step.ExpectError)
	}
	if !matchesErrorClass(err, step.ExpectError) {
		return fmt.Errorf("expected %s error, got: %v", step.ExpectError, err)
	}
	return nil
}

func (r *run) perform(step Step) error {
	switch {
	case step.Attach != "":
		n, err := r.node(step.Attach)
		if err != nil {
			return err
		}
		return r.realm.WhenReady(n, func() {})

	case step.Publish != "":
		n, err := r.node(step.Publish)
		if err != nil {
			return err
		}
		r.realm.Publish(n)
		return nil

	case step.Reenter != "":
		n, err := r.node(step.Reenter)
		if err != nil {
			return err
		}
		r.realm.Reenter(n)
		return nil

	case step.Resolve != "":
		nodeName, typeName, ok := strings.Cut(step.Resolve, "/")
		if !ok {
			return fmt.Errorf("resolve step must be node/Type, got %q", step.Resolve)
		}
		n, err := r.node(nodeName)
		if err != nil {
			return err
		}
		_, err = r.realm.ResolveType(n, r.types.typeFor(typeName))
		return err

	case step.Update != "":
		if r.machine == nil {
			return fmt.Errorf("update step without a machine")
		}
		err := r.machine.Update(step.Update)
		var rejected *fsm.InvalidStateTransitionError
		if errors.As(err, &rejected) {
			r.recorder.Record(trace.Event{
				Kind: trace.KindReject,
				From: fmt.Sprint(rejected.Current),
				To:   fmt.Sprint(rejected.Desired),
			})
		}
		return err

	case step.Announce:
		if r.machine == nil {
			return fmt.Errorf("announce step without a machine")
		}
		r.machine.Announce()
		return nil
	}
	return fmt.Errorf("empty step")
}

func matchesErrorClass(err error, class string) bool {
	switch class {
	case "invalid_transition":
		return fsm.IsInvalidTransition(err)
	case "provider_not_found":
		return resolve.IsProviderNotFound(err)
	case "no_slots":
		return resolve.IsNoDependencySlots(err)
	default:
		return false
	}
}
