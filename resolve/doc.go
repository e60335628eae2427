// Package resolve implements tree-scoped dependency resolution and
// lifecycle gating for host object trees.
//
// ARCHITECTURE:
//
// A Realm is an auxiliary annotation layer over the host's tree. Nodes that
// publish values register provider records; nodes that consume values
// declare typed slots. Neither record lives on the host object itself -
// both are kept in an arena keyed by the node's identity handle, so the
// host remains free to destroy its objects at any time (call Forget from
// the destruction path).
//
// Resolution walks the ancestor chain upward from a dependent's parent,
// binding the slot to the nearest ancestor that publishes the requested
// type. A dependent chained below another dependent of the same type
// borrows that ancestor's already-bound slot instead of re-walking; the
// borrowed result is always the provider a full walk from the ancestor
// would have found, since the segment in between was just checked. When the
// walk runs off the root, a process-wide fallback registry of singletons is
// consulted. Successful lookups are cached in the slot, so repeated
// resolution is O(1).
//
// Lifecycle gating inverts activation-order skew: descendants typically
// become ready before the ancestors that feed them. WhenReady counts the
// dependent's unsatisfied slots and fires its callback exactly once, after
// the last outstanding provider publishes, regardless of the order in which
// providers activate.
//
// EXECUTION MODEL:
//
// Everything runs synchronously on the caller's stack. There are no
// goroutines, no locks, and no asynchronous boundaries; ordering guarantees
// follow entirely from call order. A host that introduces threads must
// serialize all Realm access itself.
package resolve
