package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborkit/arbor/internal/testutil"
)

func TestWhenReady_FiresAfterLastProvider(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	mid := b.Add("mid", root)
	leaf := b.Add("leaf", mid)

	r := NewRealm()
	Provide(r, root, config{url: "a"})
	Provide(r, mid, renderer{id: 1})
	Want[config](r, leaf)
	Want[renderer](r, leaf)

	// One provider publishes before attachment, the farther one after.
	r.Publish(mid)

	ready := 0
	require.NoError(t, r.WhenReady(leaf, func() { ready++ }))
	assert.Equal(t, 0, ready, "one provider is still outstanding")

	r.Publish(root)
	assert.Equal(t, 1, ready)
}

func TestWhenReady_ExactlyOnceRegardlessOfOrder(t *testing.T) {
	orders := [][2]string{
		{"root", "mid"},
		{"mid", "root"},
	}
	for _, order := range orders {
		b := testutil.NewTreeBuilder()
		root := b.Add("root", nil)
		mid := b.Add("mid", root)
		leaf := b.Add("leaf", mid)

		r := NewRealm()
		Provide(r, root, config{url: "a"})
		Provide(r, mid, renderer{id: 1})
		Want[config](r, leaf)
		Want[renderer](r, leaf)

		ready := 0
		require.NoError(t, r.WhenReady(leaf, func() { ready++ }))

		for _, name := range order {
			r.Publish(b.Node(name))
		}
		assert.Equal(t, 1, ready, "order %v", order)
	}
}

func TestWhenReady_ImmediateWhenAllPublished(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	leaf := b.Add("leaf", root)

	r := NewRealm()
	Provide(r, root, config{url: "a"})
	Want[config](r, leaf)
	r.Publish(root)

	ready := 0
	require.NoError(t, r.WhenReady(leaf, func() { ready++ }))
	assert.Equal(t, 1, ready, "fires synchronously when nothing is outstanding")
}

func TestWhenReady_NoSlotsIsAnError(t *testing.T) {
	b := testutil.NewTreeBuilder()
	leaf := b.Add("leaf", nil)

	r := NewRealm()
	err := r.WhenReady(leaf, func() {})
	require.Error(t, err)
	assert.True(t, IsNoDependencySlots(err))
}

func TestWhenReady_UnresolvableSlot(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	leaf := b.Add("leaf", root)

	r := NewRealm()
	Want[renderer](r, leaf)

	ready := 0
	err := r.WhenReady(leaf, func() { ready++ })
	require.Error(t, err)
	assert.True(t, IsProviderNotFound(err))
	assert.Equal(t, 0, ready)
}

func TestWhenReady_SecondPublishDoesNotRefire(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	leaf := b.Add("leaf", root)

	r := NewRealm()
	Provide(r, root, config{url: "a"})
	Want[config](r, leaf)

	ready := 0
	require.NoError(t, r.WhenReady(leaf, func() { ready++ }))

	r.Publish(root)
	r.Publish(root) // one-shot subscribers are gone; nothing refires
	assert.Equal(t, 1, ready)
}

func TestWhenReady_ReattachReplacesGate(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	leaf := b.Add("leaf", root)

	r := NewRealm()
	Provide(r, root, config{url: "a"})
	Want[config](r, leaf)

	first, second := 0, 0
	require.NoError(t, r.WhenReady(leaf, func() { first++ }))
	require.NoError(t, r.WhenReady(leaf, func() { second++ }))

	r.Publish(root)
	assert.Equal(t, 0, first, "replaced gate must not fire")
	assert.Equal(t, 1, second)
}

func TestReenter_ClearsBindingsAndPublishFlag(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	leaf := b.Add("leaf", root)

	r := NewRealm()
	Provide(r, root, config{url: "a"})
	Want[config](r, leaf)

	ready := 0
	require.NoError(t, r.WhenReady(leaf, func() { ready++ }))
	r.Publish(root)
	require.Equal(t, 1, ready)
	require.True(t, r.Published(root))

	// Both nodes re-enter the tree: publish flag resets, bindings clear,
	// and the whole cycle runs again.
	r.Reenter(root)
	r.Reenter(leaf)
	assert.False(t, r.Published(root))

	require.NoError(t, r.WhenReady(leaf, func() { ready++ }))
	assert.Equal(t, 1, ready, "provider has not re-published yet")

	r.Publish(root)
	assert.Equal(t, 2, ready)
}

func TestForget_DropsState(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	leaf := b.Add("leaf", root)

	r := NewRealm()
	Provide(r, root, config{url: "a"})
	Want[config](r, leaf)

	ready := 0
	require.NoError(t, r.WhenReady(leaf, func() { ready++ }))

	// The host destroyed the dependent; its pending gate must not fire.
	r.Forget(leaf.ID())
	r.Publish(root)
	assert.Equal(t, 0, ready)
}

func TestPublish_SubscriberRegistrationOrder(t *testing.T) {
	b := testutil.NewTreeBuilder()
	root := b.Add("root", nil)
	d1 := b.Add("d1", root)
	d2 := b.Add("d2", root)

	r := NewRealm()
	Provide(r, root, config{url: "a"})
	Want[config](r, d1)
	Want[config](r, d2)

	var order []string
	require.NoError(t, r.WhenReady(d1, func() { order = append(order, "d1") }))
	require.NoError(t, r.WhenReady(d2, func() { order = append(order, "d2") }))

	r.Publish(root)
	assert.Equal(t, []string{"d1", "d2"}, order, "subscribers run in registration order")
}
