package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a host tree with providers
// and dependents, an optional state machine, and a step list replayed
// against a fresh Realm. Assertions validate the recorded trace and the
// machine's final state.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Token is an optional fixed trace token for deterministic runs.
	// Defaults to "test-run-default".
	Token string `yaml:"token,omitempty"`

	// Nodes declares the host tree, listed parents-first. Parent refers to
	// an earlier node's name; empty means root.
	Nodes []NodeDecl `yaml:"nodes,omitempty"`

	// Globals lists value-type names registered in the fallback registry
	// before the steps run.
	Globals []string `yaml:"globals,omitempty"`

	// Machine optionally declares an inline state machine.
	Machine *MachineDecl `yaml:"machine,omitempty"`

	// MachineFile optionally names a CUE machine definition, relative to
	// the scenario file. Mutually exclusive with Machine.
	MachineFile string `yaml:"machine_file,omitempty"`

	// Steps is the replayed action sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and machine state.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// dir is the directory the scenario was loaded from, for resolving
	// MachineFile. Empty for inline scenarios.
	dir string
}

// NodeDecl declares one host tree node.
type NodeDecl struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent,omitempty"`

	// Provides lists value-type names this node publishes.
	Provides []string `yaml:"provides,omitempty"`

	// Wants lists value-type names this node declares slots for.
	Wants []string `yaml:"wants,omitempty"`
}

// MachineDecl declares an inline state machine.
type MachineDecl struct {
	Initial string `yaml:"initial"`

	// Transitions maps each state to its reachable states. Empty means
	// unrestricted (no guard).
	Transitions map[string][]string `yaml:"transitions,omitempty"`
}

// Step is one replayed action. Exactly one field should be set.
type Step struct {
	// Attach runs WhenReady for the named node.
	Attach string `yaml:"attach,omitempty"`

	// Publish publishes the named node.
	Publish string `yaml:"publish,omitempty"`

	// Reenter resets the named node's resolution context.
	Reenter string `yaml:"reenter,omitempty"`

	// Resolve resolves one slot: "node/Type".
	Resolve string `yaml:"resolve,omitempty"`

	// Update submits a machine state.
	Update string `yaml:"update,omitempty"`

	// Announce forces a machine re-broadcast.
	Announce bool `yaml:"announce,omitempty"`

	// ExpectError names the error class the step must fail with:
	// invalid_transition, provider_not_found, or no_slots. A step without
	// ExpectError must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates the recorded trace or the machine's final state.
type Assertion struct {
	// Type is one of: trace_contains, trace_order, trace_count,
	// final_state.
	Type string `yaml:"type"`

	// Match selects events for trace_contains and trace_count.
	Match EventMatch `yaml:"match,omitempty"`

	// First and Then select events for trace_order: the first match of
	// First must precede the first match of Then.
	First EventMatch `yaml:"first,omitempty"`
	Then  EventMatch `yaml:"then,omitempty"`

	// Count is the expected number of matches for trace_count.
	Count int `yaml:"count,omitempty"`

	// State is the expected final machine state for final_state.
	State string `yaml:"state,omitempty"`
}

// EventMatch selects trace events by field subset: zero fields are
// wildcards.
type EventMatch struct {
	Kind      string `yaml:"kind,omitempty"`
	Node      string `yaml:"node,omitempty"` // node name, resolved to its handle
	ValueType string `yaml:"value_type,omitempty"`
	Source    string `yaml:"source,omitempty"`
	From      string `yaml:"from,omitempty"`
	To        string `yaml:"to,omitempty"`
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	s.dir = filepath.Dir(path)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the scenario for structural problems before it runs.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Machine != nil && s.MachineFile != "" {
		return fmt.Errorf("machine and machine_file are mutually exclusive")
	}

	seen := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.Name == "" {
			return fmt.Errorf("node without a name")
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate node %q", n.Name)
		}
		if n.Parent != "" && !seen[n.Parent] {
			return fmt.Errorf("node %q: parent %q not declared earlier", n.Name, n.Parent)
		}
		seen[n.Name] = true
	}

	for i, st := range s.Steps {
		set := 0
		for _, on := range []bool{
			st.Attach != "", st.Publish != "", st.Reenter != "",
			st.Resolve != "", st.Update != "", st.Announce,
		} {
			if on {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("step %d: exactly one action is required", i+1)
		}
	}
	return nil
}
