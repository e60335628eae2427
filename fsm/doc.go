// Package fsm provides a queued, order-preserving state machine core and a
// simpler value-change notifier.
//
// The machine applies submitted states strictly in FIFO order and announces
// each committed transition to its observers synchronously. Re-entrancy is
// the interesting part: an observer reacting to a transition may submit
// further transitions, and those must neither recurse (unbounded stack) nor
// reorder. The machine therefore drains an explicit pending queue under a
// busy flag - a reentrant Update only enqueues, and the single outer drain
// loop applies it once the current announcement returns. Exactly one drain
// loop is ever active per machine.
//
// Transition validity is an optional guard predicate evaluated against the
// current state. A rejected transition fails that Update call and discards
// everything still queued behind it; the already-applied prefix stays
// committed.
//
// Everything is single-threaded and lock-free; ordering guarantees follow
// from call order alone.
package fsm
