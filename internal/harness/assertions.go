package harness

import (
	"fmt"
	"strings"

	"github.com/arborkit/arbor/internal/trace"
)

// AssertionError is returned when an assertion fails. It includes the full
// trace so the failure is debuggable from the message alone.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []trace.Event
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nfull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s%s\n", ev.Seq, ev.Kind, describeEvent(ev))
	}
	return buf.String()
}

func describeEvent(ev trace.Event) string {
	var parts []string
	if ev.Node != 0 {
		parts = append(parts, fmt.Sprintf("node=%d", ev.Node))
	}
	if ev.ValueType != "" {
		parts = append(parts, "type="+ev.ValueType)
	}
	if ev.Source != "" {
		parts = append(parts, "source="+ev.Source)
	}
	if ev.From != "" || ev.To != "" {
		parts = append(parts, fmt.Sprintf("%s->%s", ev.From, ev.To))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// assert evaluates one assertion against the result.
func (r *run) assert(a Assertion, result *Result) error {
	events := result.Snapshot.Events
	switch a.Type {
	case "trace_contains":
		if r.firstMatch(events, a.Match) >= 0 {
			return nil
		}
		return &AssertionError{
			Type:     "trace_contains",
			Expected: fmt.Sprintf("an event matching %+v", a.Match),
			Actual:   "no match in trace",
			Trace:    events,
		}

	case "trace_order":
		first := r.firstMatch(events, a.First)
		then := r.firstMatch(events, a.Then)
		switch {
		case first < 0:
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("an event matching %+v", a.First),
				Actual:   "no match in trace",
				Trace:    events,
			}
		case then < 0:
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("an event matching %+v", a.Then),
				Actual:   "no match in trace",
				Trace:    events,
			}
		case first >= then:
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("%+v before %+v", a.First, a.Then),
				Actual:   fmt.Sprintf("positions %d and %d", first+1, then+1),
				Trace:    events,
			}
		}
		return nil

	case "trace_count":
		count := 0
		for i := range events {
			if r.matches(events[i], a.Match) {
				count++
			}
		}
		if count != a.Count {
			return &AssertionError{
				Type:     "trace_count",
				Expected: fmt.Sprintf("%d events matching %+v", a.Count, a.Match),
				Actual:   fmt.Sprintf("%d events", count),
				Trace:    events,
			}
		}
		return nil

	case "final_state":
		if result.Final != a.State {
			return &AssertionError{
				Type:     "final_state",
				Expected: a.State,
				Actual:   result.Final,
				Trace:    events,
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// firstMatch returns the index of the first event matching m, or -1.
func (r *run) firstMatch(events []trace.Event, m EventMatch) int {
	for i := range events {
		if r.matches(events[i], m) {
			return i
		}
	}
	return -1
}

// matches applies subset semantics: zero-valued match fields are
// wildcards. Node names are translated to identity handles.
func (r *run) matches(ev trace.Event, m EventMatch) bool {
	if m.Kind != "" && string(ev.Kind) != m.Kind {
		return false
	}
	if m.Node != "" {
		n, ok := r.nodes[m.Node]
		if !ok || ev.Node != int64(n.ID()) {
			return false
		}
	}
	if m.ValueType != "" && ev.ValueType != m.ValueType {
		return false
	}
	if m.Source != "" && ev.Source != m.Source {
		return false
	}
	if m.From != "" && ev.From != m.From {
		return false
	}
	if m.To != "" && ev.To != m.To {
		return false
	}
	return true
}
