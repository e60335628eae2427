// Package tree defines the host-tree collaborator surface.
//
// Arbor does not own a scene graph of its own. The host application owns a
// hierarchy of objects and exposes just enough of it for resolution to walk
// upward: a stable identity handle and a parent pointer. Everything arbor
// needs to remember about a node lives in an Arena keyed by that handle, so
// the host's objects never carry arbor state and arbor never extends their
// lifetime.
package tree

// NodeID is a stable integer identity handle for one tree object.
//
// The host assigns IDs; arbor only requires that an ID is never reused while
// the original object is alive. The zero value is reserved as "no node".
type NodeID int64

// InvalidID is the zero NodeID, used where no node applies.
const InvalidID NodeID = 0

// Node is the minimal view of a host tree object.
//
// Parent returns nil at the root. Resolution only ever walks upward, so
// child enumeration is not part of this interface.
type Node interface {
	ID() NodeID
	Parent() Node
}

// IDOf returns the ID of n, or InvalidID for a nil node.
func IDOf(n Node) NodeID {
	if n == nil {
		return InvalidID
	}
	return n.ID()
}
