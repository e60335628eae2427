package fsm

// ValueObserver receives value changes as (current, previous) pairs.
type ValueObserver[T comparable] func(current, previous T)

// Notifier announces value changes to observers. It shares the machine's
// announce mechanics but has no guard and no queue: there is no rejection
// path that could desynchronize one, so updates apply in place.
type Notifier[T comparable] struct {
	current   T
	previous  T
	observers []*valueObserverEntry[T]
}

type valueObserverEntry[T comparable] struct {
	fn ValueObserver[T]
}

// NewNotifier creates a notifier holding initial. No announcement is made
// until the value first changes.
func NewNotifier[T comparable](initial T) *Notifier[T] {
	return &Notifier[T]{current: initial, previous: initial}
}

// Current returns the stored value.
func (n *Notifier[T]) Current() T {
	return n.current
}

// Previous returns the value held before the most recent change.
func (n *Notifier[T]) Previous() T {
	return n.previous
}

// Subscribe registers an observer; the returned function removes it.
func (n *Notifier[T]) Subscribe(fn ValueObserver[T]) func() {
	e := &valueObserverEntry[T]{fn: fn}
	n.observers = append(n.observers, e)
	return func() {
		for i, cand := range n.observers {
			if cand == e {
				n.observers = append(n.observers[:i], n.observers[i+1:]...)
				return
			}
		}
	}
}

// Update stores v and announces (current, previous) synchronously to every
// observer in registration order. Updating to the value already held is a
// silent no-op: nothing is stored and no observer runs.
func (n *Notifier[T]) Update(v T) {
	if v == n.current {
		return
	}
	n.previous = n.current
	n.current = v
	for _, e := range n.observers {
		e.fn(n.current, n.previous)
	}
}
