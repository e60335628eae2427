// Package trace defines the logical trace model shared by the journal,
// harness, and CLI.
//
// A trace is an ordered list of events describing what the resolution
// engine and state machines did: slot bindings, provider publishes, ready
// firings, committed and rejected transitions, value changes. Events are
// stamped with a monotonic logical sequence number - never a wall-clock
// timestamp - so a trace recorded twice from the same inputs is
// byte-identical, which is what makes golden-file comparison and journal
// replay meaningful.
package trace

// Kind distinguishes trace event kinds.
type Kind string

const (
	// KindBind records a dependency slot binding to a provider.
	KindBind Kind = "bind"

	// KindPublish records a provider publishing.
	KindPublish Kind = "publish"

	// KindReady records a gated dependent's ready callback firing.
	KindReady Kind = "ready"

	// KindTransition records a committed state machine transition.
	KindTransition Kind = "transition"

	// KindReject records a guard-rejected transition.
	KindReject Kind = "reject"

	// KindChange records a value-change notifier firing.
	KindChange Kind = "change"
)

// Event is one entry in a trace.
//
// Only the fields relevant to the event's kind are set; zero-valued fields
// are omitted from the canonical serialization.
type Event struct {
	// Seq is the logical sequence number from the trace clock.
	Seq int64 `json:"seq"`

	// Kind identifies the event kind.
	Kind Kind `json:"kind"`

	// Node is the identity handle of the node the event concerns
	// (dependent for bind/ready, provider for publish).
	Node int64 `json:"node,omitempty"`

	// ValueType names the requested type for bind events.
	ValueType string `json:"value_type,omitempty"`

	// Provider is the bound provider's handle for bind events; zero for
	// global fallback providers.
	Provider int64 `json:"provider,omitempty"`

	// Source records how a binding was obtained (ancestor, borrowed,
	// global).
	Source string `json:"source,omitempty"`

	// From and To carry the states of transition, reject, and change
	// events.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Snapshot captures a complete recorded trace for canonical serialization
// and golden comparison.
type Snapshot struct {
	// Label names the run (scenario name, machine name).
	Label string `json:"label"`

	// Token is the correlation token the trace was recorded under.
	Token string `json:"token,omitempty"`

	// Events is the trace in sequence order.
	Events []Event `json:"events"`
}

// toCanonicalMap converts an Event to a map for canonical JSON. Zero
// fields are dropped so the canonical form stays stable when new optional
// fields appear.
func (e Event) toCanonicalMap() map[string]any {
	m := map[string]any{
		"seq":  e.Seq,
		"kind": string(e.Kind),
	}
	if e.Node != 0 {
		m["node"] = e.Node
	}
	if e.ValueType != "" {
		m["value_type"] = e.ValueType
	}
	if e.Provider != 0 {
		m["provider"] = e.Provider
	}
	if e.Source != "" {
		m["source"] = e.Source
	}
	if e.From != "" {
		m["from"] = e.From
	}
	if e.To != "" {
		m["to"] = e.To
	}
	return m
}

// Canonical returns the snapshot's canonical JSON serialization.
func (s *Snapshot) Canonical() ([]byte, error) {
	events := make([]any, len(s.Events))
	for i, e := range s.Events {
		events[i] = e.toCanonicalMap()
	}
	m := map[string]any{
		"label":  s.Label,
		"events": events,
	}
	if s.Token != "" {
		m["token"] = s.Token
	}
	return MarshalCanonical(m)
}

// ID returns the snapshot's content-addressed identity.
func (s *Snapshot) ID() (string, error) {
	data, err := s.Canonical()
	if err != nil {
		return "", err
	}
	return SnapshotID(data), nil
}

// Recorder accumulates events, stamping them from a Clock.
type Recorder struct {
	clock  *Clock
	token  string
	events []Event
}

// NewRecorder creates a recorder stamping from clock under the given
// correlation token.
func NewRecorder(clock *Clock, token string) *Recorder {
	return &Recorder{clock: clock, token: token}
}

// Record stamps e with the next sequence number and appends it.
func (r *Recorder) Record(e Event) Event {
	e.Seq = r.clock.Next()
	r.events = append(r.events, e)
	return e
}

// Token returns the recorder's correlation token.
func (r *Recorder) Token() string {
	return r.token
}

// Events returns the recorded events in sequence order.
func (r *Recorder) Events() []Event {
	return r.events
}

// Snapshot returns the recorded trace under the given label.
func (r *Recorder) Snapshot(label string) *Snapshot {
	return &Snapshot{Label: label, Token: r.token, Events: r.events}
}
