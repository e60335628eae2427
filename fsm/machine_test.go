package fsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_InitialAnnounce(t *testing.T) {
	var seen []string
	m := New("idle", WithObserver(func(s string) {
		seen = append(seen, s)
	}))

	assert.Equal(t, "idle", m.Current())
	assert.Equal(t, []string{"idle"}, seen, "constructor announces the initial state once")
}

func TestMachine_UpdateCommitsAndAnnounces(t *testing.T) {
	var seen []string
	m := New("a", WithObserver(func(s string) {
		seen = append(seen, s)
	}))

	require.NoError(t, m.Update("b"))
	assert.Equal(t, "b", m.Current())
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestMachine_NoOpOnEqualState(t *testing.T) {
	calls := 0
	m := New("a", WithObserver(func(string) {
		calls++
	}))
	require.Equal(t, 1, calls)

	// Updating to the current state never announces and never errors.
	require.NoError(t, m.Update("a"))
	assert.Equal(t, "a", m.Current())
	assert.Equal(t, 1, calls)
}

func TestMachine_GuardRejection(t *testing.T) {
	table := Table[string]{"a": {"b"}}
	m := New("a", WithGuard(table.Guard()))

	err := m.Update("c")
	require.Error(t, err)
	assert.True(t, IsInvalidTransition(err))

	var rejected *InvalidStateTransitionError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "a", rejected.Current)
	assert.Equal(t, "c", rejected.Desired)

	// Current state is unchanged after a rejection.
	assert.Equal(t, "a", m.Current())
}

func TestMachine_TransitionCycle(t *testing.T) {
	// a->b, b->c, c->a allowed; everything else rejected.
	table := Table[string]{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	m := New("a", WithGuard(table.Guard()))

	require.NoError(t, m.Update("b"))
	assert.Equal(t, "b", m.Current())

	require.NoError(t, m.Update("c"))
	assert.Equal(t, "c", m.Current())

	err := m.Update("b")
	require.Error(t, err)
	var rejected *InvalidStateTransitionError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "c", rejected.Current)
	assert.Equal(t, "b", rejected.Desired)
	assert.Equal(t, "c", m.Current())
}

func TestMachine_ReentrantUpdateAppliesInOrder(t *testing.T) {
	var seen []string
	m := New("a")
	m.Subscribe(func(s string) {
		seen = append(seen, s)
		if s == "b" {
			// Submitted from inside the announcement: must only enqueue
			// and be applied by the same outer drain, after b.
			require.NoError(t, m.Update("c"))
		}
	})

	require.NoError(t, m.Update("b"))

	assert.Equal(t, "c", m.Current(), "reentrant submission is applied before Update returns")
	assert.Equal(t, []string{"b", "c"}, seen)
}

func TestMachine_ReentrantChainStaysFIFO(t *testing.T) {
	var seen []string
	m := New("s0")
	m.Subscribe(func(s string) {
		seen = append(seen, s)
		switch s {
		case "s1":
			require.NoError(t, m.Update("s2"))
			require.NoError(t, m.Update("s3"))
		case "s2":
			require.NoError(t, m.Update("s4"))
		}
	})

	require.NoError(t, m.Update("s1"))

	// s2 and s3 were enqueued while announcing s1; s4 while announcing
	// s2. FIFO order of submission must hold: s2, s3, s4.
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, seen)
	assert.Equal(t, "s4", m.Current())
}

func TestMachine_RejectionDiscardsQueuedRemainder(t *testing.T) {
	table := Table[string]{
		"a": {"b"},
		"b": {}, // dead end: everything from b is rejected
		"c": {"a"},
	}

	var seen []string
	var reentrantErr error
	m := New("a", WithGuard(table.Guard()))
	m.Subscribe(func(s string) {
		seen = append(seen, s)
		if s == "b" {
			// Both enqueue; the first is rejected by the outer drain and
			// the second must be dropped with it.
			reentrantErr = m.Update("c")
			require.NoError(t, m.Update("a"))
		}
	})

	err := m.Update("b")
	require.Error(t, err, "rejection surfaces on the outer Update call")
	assert.True(t, IsInvalidTransition(err))

	assert.NoError(t, reentrantErr, "reentrant submissions only enqueue")
	assert.Equal(t, []string{"b"}, seen)
	assert.Equal(t, "b", m.Current(), "committed prefix stays committed")

	// The machine drains normally again afterwards.
	require.Error(t, m.Update("c"))
	assert.Equal(t, "b", m.Current())
}

func TestMachine_AnnounceRebroadcasts(t *testing.T) {
	var seen []string
	m := New("a", WithObserver(func(s string) {
		seen = append(seen, s)
	}))

	m.Announce()
	assert.Equal(t, []string{"a", "a"}, seen)
}

func TestMachine_ObserverOrderAndUnsubscribe(t *testing.T) {
	var seen []string
	m := New("a")
	m.Subscribe(func(s string) { seen = append(seen, "first:"+s) })
	remove := m.Subscribe(func(s string) { seen = append(seen, "second:"+s) })
	m.Subscribe(func(s string) { seen = append(seen, "third:"+s) })

	require.NoError(t, m.Update("b"))
	assert.Equal(t, []string{"first:b", "second:b", "third:b"}, seen)

	seen = nil
	remove()
	remove() // removing twice is a no-op
	require.NoError(t, m.Update("c"))
	assert.Equal(t, []string{"first:c", "third:c"}, seen)
}

func TestMachine_IntStates(t *testing.T) {
	table := Table[int]{1: {2}, 2: {3}}
	m := New(1, WithGuard(table.Guard()))

	require.NoError(t, m.Update(2))
	require.NoError(t, m.Update(3))
	assert.Equal(t, 3, m.Current())

	err := m.Update(1)
	var rejected *InvalidStateTransitionError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 3, rejected.Current)
	assert.Equal(t, 1, rejected.Desired)
}
