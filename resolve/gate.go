package resolve

import (
	"fmt"
	"reflect"

	"github.com/arborkit/arbor/tree"
)

// gate counts outstanding slots for one gated dependent. A cancelled gate
// swallows any late publish notifications from subscriptions it left
// behind; the one-shot subscribers remove themselves regardless.
type gate struct {
	owner     tree.NodeID
	remaining int
	onReady   func()
	fired     bool
	cancelled bool
}

func (g *gate) cancel() {
	g.cancelled = true
}

func (g *gate) satisfy(r *Realm) {
	if g.cancelled || g.fired {
		return
	}
	g.remaining--
	if g.remaining > 0 {
		return
	}
	g.fired = true
	r.logger.Debug("dependent ready", "node", g.owner)
	if r.hooks.OnReady != nil {
		r.hooks.OnReady(g.owner)
	}
	g.onReady()
}

// WhenReady resolves every declared slot of node and arranges for onReady
// to fire exactly once, after the last bound provider has published.
// Providers that already published count immediately; the rest get a
// one-shot subscription that deregisters itself after firing. If every
// provider has already published, onReady fires synchronously before
// WhenReady returns.
//
// Calling WhenReady again replaces the previous attachment: the old gate is
// cancelled and a fresh countdown runs against the current bindings. A node
// whose tree position changed must go through Reenter first so stale
// bindings are cleared.
//
// Fails with *NoDependencySlotsError when node declared no slots, and with
// *ProviderNotFoundError (wrapped) when a slot cannot be bound; in the
// latter case the gate is cancelled and onReady will never fire.
func (r *Realm) WhenReady(node tree.Node, onReady func()) error {
	st := r.state(node.ID())
	if len(st.slotOrder) == 0 {
		return &NoDependencySlotsError{Dependent: node.ID()}
	}
	if st.gate != nil {
		st.gate.cancel()
	}

	g := &gate{
		owner:     node.ID(),
		remaining: len(st.slotOrder),
		onReady:   onReady,
	}
	st.gate = g

	for _, typ := range st.slotOrder {
		reg, err := r.resolveSlot(node, typ)
		if err != nil {
			g.cancel()
			st.gate = nil
			return fmt.Errorf("gate slot %s: %w", typ, err)
		}
		if reg.published {
			g.satisfy(r)
			continue
		}
		reg.subscribe(func(tree.Node) { g.satisfy(r) }, true)
	}
	return nil
}

// subscribe appends a callback to the provider's subscriber list. One-shot
// subscribers are removed after their first invocation.
func (g *registration) subscribe(fn func(tree.Node), oneShot bool) {
	g.subscribers = append(g.subscribers, &subscriber{fn: fn, oneShot: oneShot})
}

// Publish marks node as published for its current activation and invokes
// every currently-registered subscriber, in registration order, with node
// as argument. One-shot subscribers are dropped once invoked; persistent
// ones stay for the next publish.
//
// Publish is safe to call more than once - a second call re-runs whatever
// subscribers remain, normally none. Publishing before the provider's own
// values are initialized is a caller error: dependents may observe
// partially-initialized data, and the engine cannot detect it.
func (r *Realm) Publish(node tree.Node) {
	st := r.state(node.ID())
	if st.reg == nil {
		st.reg = &registration{
			owner:  node.ID(),
			values: make(map[reflect.Type]any),
		}
	}
	st.reg.published = true

	r.logger.Debug("provider published", "node", node.ID(), "subscribers", len(st.reg.subscribers))
	if r.hooks.OnPublish != nil {
		r.hooks.OnPublish(node.ID())
	}

	// Callbacks may register new subscribers; they are appended after the
	// snapshot and kept for the next publish, not invoked now.
	snapshot := st.reg.subscribers
	st.reg.subscribers = nil
	var kept []*subscriber
	for _, s := range snapshot {
		s.fn(node)
		if !s.oneShot {
			kept = append(kept, s)
		}
	}
	st.reg.subscribers = append(kept, st.reg.subscribers...)
}
