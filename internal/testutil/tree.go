// Package testutil provides deterministic fixtures shared by arbor's
// tests and the conformance harness.
package testutil

import "github.com/arborkit/arbor/tree"

// TreeNode is an in-memory tree.Node implementation. The harness and tests
// use it as the host tree; production hosts bring their own.
type TreeNode struct {
	id       tree.NodeID
	name     string
	parent   *TreeNode
	children []*TreeNode
}

// ID implements tree.Node.
func (n *TreeNode) ID() tree.NodeID {
	return n.id
}

// Parent implements tree.Node. Returns nil at the root; the nil check
// matters because a typed nil *TreeNode must not escape as a non-nil
// tree.Node interface.
func (n *TreeNode) Parent() tree.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns the node's children in attach order.
func (n *TreeNode) Children() []*TreeNode {
	return n.children
}

// Name returns the node's test name.
func (n *TreeNode) Name() string {
	return n.name
}

// TreeBuilder assigns deterministic identity handles: the first node added
// gets ID 1, the second ID 2, and so on. Names are unique per builder.
type TreeBuilder struct {
	nextID tree.NodeID
	byName map[string]*TreeNode
}

// NewTreeBuilder creates an empty builder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{nextID: 1, byName: make(map[string]*TreeNode)}
}

// Add creates a node under parent (nil for a root). Panics on a duplicate
// name - a fail-fast guard against fixture typos.
func (b *TreeBuilder) Add(name string, parent *TreeNode) *TreeNode {
	if _, ok := b.byName[name]; ok {
		panic("testutil: duplicate node name " + name)
	}
	n := &TreeNode{id: b.nextID, name: name, parent: parent}
	b.nextID++
	if parent != nil {
		parent.children = append(parent.children, n)
	}
	b.byName[name] = n
	return n
}

// Node returns the node with the given name, or nil.
func (b *TreeBuilder) Node(name string) *TreeNode {
	return b.byName[name]
}
