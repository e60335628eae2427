package tree

// Arena is an associative side-table keyed by NodeID.
//
// It attaches auxiliary state to host tree objects without the objects
// declaring it themselves and without holding a reference to them: the key
// is the integer handle, never the Node. When the host destroys a node it
// must call Remove (typically from its destruction notification); until
// then the state is reachable, afterwards it is gone. There is no automatic
// collection and no error path.
//
// Arena is not safe for concurrent use. Arbor's execution model is
// single-threaded and cooperative, so no locking is taken anywhere.
type Arena[S any] struct {
	entries map[NodeID]*S
}

// NewArena creates an empty arena.
func NewArena[S any]() *Arena[S] {
	return &Arena[S]{entries: make(map[NodeID]*S)}
}

// Get returns the state for id, if any.
func (a *Arena[S]) Get(id NodeID) (*S, bool) {
	s, ok := a.entries[id]
	return s, ok
}

// GetOrCreate returns the state for id, calling build on first access.
// build must not be nil.
func (a *Arena[S]) GetOrCreate(id NodeID, build func() *S) *S {
	if s, ok := a.entries[id]; ok {
		return s
	}
	s := build()
	a.entries[id] = s
	return s
}

// Set installs state for id, replacing any previous state.
func (a *Arena[S]) Set(id NodeID, s *S) {
	a.entries[id] = s
}

// Remove drops the state for id. Removing an absent id is a no-op.
func (a *Arena[S]) Remove(id NodeID) {
	delete(a.entries, id)
}

// Len returns the number of nodes with attached state.
// Used for testing and introspection.
func (a *Arena[S]) Len() int {
	return len(a.entries)
}
