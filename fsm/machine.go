package fsm

import "log/slog"

// Guard decides whether a transition from one state to another is allowed.
// A nil guard allows every transition.
type Guard[S comparable] func(from, to S) bool

// Observer receives committed states.
type Observer[S comparable] func(state S)

// Machine is a queued finite-state machine over comparable state values.
//
// INVARIANTS:
//   - busy is true for the entire duration of a drain; exactly one drain
//     loop is ever active per machine instance.
//   - Observers are invoked in registration order, synchronously, after
//     each committed transition.
//   - States are applied strictly in submission order, including states
//     submitted from inside an observer callback.
type Machine[S comparable] struct {
	current   S
	pending   []S
	busy      bool
	guard     Guard[S]
	observers []*observerEntry[S]
	logger    *slog.Logger
}

type observerEntry[S comparable] struct {
	fn Observer[S]
}

// MachineOption configures a Machine.
type MachineOption[S comparable] func(*Machine[S])

// WithGuard installs the transition predicate. Default: all transitions
// allowed.
func WithGuard[S comparable](g Guard[S]) MachineOption[S] {
	return func(m *Machine[S]) {
		m.guard = g
	}
}

// WithObserver registers an observer at construction, so that it sees the
// initial announcement.
func WithObserver[S comparable](fn Observer[S]) MachineOption[S] {
	return func(m *Machine[S]) {
		m.Subscribe(fn)
	}
}

// WithMachineLogger sets a structured logger for transition tracing.
// Default: slog.Default().
func WithMachineLogger[S comparable](logger *slog.Logger) MachineOption[S] {
	return func(m *Machine[S]) {
		m.logger = logger
	}
}

// New creates a machine in the given initial state and announces it once.
// The initial state is required - a machine never holds an implicit zero
// state.
func New[S comparable](initial S, opts ...MachineOption[S]) *Machine[S] {
	m := &Machine[S]{
		current: initial,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Announce()
	return m
}

// Current returns the machine's current state.
func (m *Machine[S]) Current() S {
	return m.current
}

// Subscribe registers an observer. Observers are announced to in
// registration order. The returned function removes the observer; removing
// twice is a no-op.
func (m *Machine[S]) Subscribe(fn Observer[S]) func() {
	e := &observerEntry[S]{fn: fn}
	m.observers = append(m.observers, e)
	return func() {
		for i, cand := range m.observers {
			if cand == e {
				m.observers = append(m.observers[:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

// Announce invokes every observer with the current state. Used internally
// after each committed transition and available to force a re-broadcast.
func (m *Machine[S]) Announce() {
	for _, e := range m.observers {
		e.fn(m.current)
	}
}

// Update submits next as the machine's desired state.
//
// If a drain is already active on this machine, next is only enqueued and
// Update returns nil immediately - the outer drain applies it in FIFO order
// once the current announcement returns, and any guard rejection surfaces
// on the outer Update call. Otherwise Update drains the queue itself:
// states equal to the current state are skipped silently, allowed
// transitions are committed and announced before the next item is popped,
// and a rejected transition clears the queue and fails with
// *InvalidStateTransitionError. The prefix committed before a rejection
// stays committed.
func (m *Machine[S]) Update(next S) error {
	m.pending = append(m.pending, next)
	if m.busy {
		return nil
	}

	m.busy = true
	defer func() { m.busy = false }()

	for len(m.pending) > 0 {
		head := m.pending[0]
		m.pending = m.pending[1:]

		if head == m.current {
			continue
		}
		if m.guard != nil && !m.guard(m.current, head) {
			m.logger.Debug("transition rejected", "from", m.current, "to", head, "dropped", len(m.pending))
			m.pending = nil
			return &InvalidStateTransitionError{Current: m.current, Desired: head}
		}

		m.logger.Debug("transition committed", "from", m.current, "to", head)
		m.current = head
		m.Announce()
	}
	return nil
}
