package fsm

// Table is an explicit transition table: for each state, the set of states
// reachable from it. States absent from the table allow no outgoing
// transitions. Table is the usual source for a machine's guard when the
// transition graph is known up front (hand-written or compiled from a
// declarative definition).
type Table[S comparable] map[S][]S

// Allows reports whether the table permits a transition from one state to
// another.
func (t Table[S]) Allows(from, to S) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Guard returns the table's membership check as a machine guard.
func (t Table[S]) Guard() Guard[S] {
	return t.Allows
}
