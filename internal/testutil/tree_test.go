package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborkit/arbor/tree"
)

func TestTreeBuilder_SequentialIDs(t *testing.T) {
	b := NewTreeBuilder()
	root := b.Add("root", nil)
	child := b.Add("child", root)
	grand := b.Add("grand", child)

	assert.Equal(t, tree.NodeID(1), root.ID())
	assert.Equal(t, tree.NodeID(2), child.ID())
	assert.Equal(t, tree.NodeID(3), grand.ID())
}

func TestTreeBuilder_ParentLinks(t *testing.T) {
	b := NewTreeBuilder()
	root := b.Add("root", nil)
	child := b.Add("child", root)

	// Root parent must be a true nil interface, not a typed nil pointer.
	assert.Nil(t, root.Parent())
	require.NotNil(t, child.Parent())
	assert.Equal(t, root.ID(), child.Parent().ID())
	assert.Equal(t, []*TreeNode{child}, root.Children())
}

func TestTreeBuilder_Lookup(t *testing.T) {
	b := NewTreeBuilder()
	b.Add("root", nil)

	require.NotNil(t, b.Node("root"))
	assert.Equal(t, "root", b.Node("root").Name())
	assert.Nil(t, b.Node("missing"))
}

func TestTreeBuilder_DuplicateNamePanics(t *testing.T) {
	b := NewTreeBuilder()
	b.Add("root", nil)
	assert.Panics(t, func() { b.Add("root", nil) })
}
