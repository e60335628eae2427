package resolve

import (
	"log/slog"
	"reflect"

	"github.com/arborkit/arbor/tree"
)

// registration is the per-node provider record: a has-published flag, the
// published values keyed by type, and the pending subscriber callbacks in
// registration order.
type registration struct {
	owner       tree.NodeID
	published   bool
	values      map[reflect.Type]any
	subscribers []*subscriber
}

type subscriber struct {
	fn      func(tree.Node)
	oneShot bool
}

func (g *registration) provides(typ reflect.Type) bool {
	_, ok := g.values[typ]
	return ok
}

// slot is a single typed dependency binding. provider is nil until bound;
// once set it is never stale unless explicitly cleared (Reenter). The slot
// holds a back-reference only - the provider's lifetime is governed by the
// host tree, not by the slot.
type slot struct {
	valueType reflect.Type
	provider  *registration
}

// nodeState aggregates every annotation kept for one node.
type nodeState struct {
	reg       *registration
	slots     map[reflect.Type]*slot
	slotOrder []reflect.Type // declaration order, for deterministic gating
	gate      *gate
}

// Hooks receives notifications of resolution and lifecycle events. All
// fields are optional; a nil hook costs nothing. Callbacks run synchronously
// on the caller's stack, so they must not mutate the Realm mid-walk.
type Hooks struct {
	// OnBind fires when a slot is bound to a provider. source is one of
	// BindAncestor, BindBorrowed, BindGlobal.
	OnBind func(dependent tree.NodeID, typ reflect.Type, provider tree.NodeID, source BindSource)

	// OnPublish fires when a provider publishes, before its subscribers
	// are notified.
	OnPublish func(provider tree.NodeID)

	// OnReady fires when a gated dependent's last slot is satisfied,
	// immediately before the dependent's own ready callback.
	OnReady func(dependent tree.NodeID)
}

// BindSource identifies how a slot binding was obtained.
type BindSource string

const (
	// BindAncestor means the walk found an ancestor publishing the type.
	BindAncestor BindSource = "ancestor"

	// BindBorrowed means the binding was borrowed from an ancestor
	// dependent's already-bound slot for the same type.
	BindBorrowed BindSource = "borrowed"

	// BindGlobal means the fallback registry supplied the provider.
	BindGlobal BindSource = "global"
)

// Realm owns all resolution state for one host tree: the per-node
// annotation arena and the global fallback registry.
//
// A Realm takes no locks; see the package documentation for the execution
// model.
type Realm struct {
	nodes  *tree.Arena[nodeState]
	logger *slog.Logger
	hooks  Hooks

	// globals is the host-registered singleton source; globalCache holds
	// the lazily-built provider records, one per type on first successful
	// global lookup.
	globals     map[reflect.Type]any
	globalCache map[reflect.Type]*registration
}

// Option configures a Realm.
type Option func(*Realm)

// WithLogger sets a structured logger for resolution tracing.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Realm) {
		r.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(h Hooks) Option {
	return func(r *Realm) {
		r.hooks = h
	}
}

// NewRealm creates an empty Realm.
func NewRealm(opts ...Option) *Realm {
	r := &Realm{
		nodes:       tree.NewArena[nodeState](),
		logger:      slog.Default(),
		globals:     make(map[reflect.Type]any),
		globalCache: make(map[reflect.Type]*registration),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newNodeState() *nodeState {
	return &nodeState{slots: make(map[reflect.Type]*slot)}
}

func (r *Realm) state(id tree.NodeID) *nodeState {
	return r.nodes.GetOrCreate(id, newNodeState)
}

// Provide registers node as a provider of value v under type V. The value
// is available to descendants as soon as a slot binds, but the provider
// counts as ready only once Publish is called.
//
// Registering the same type twice replaces the value; the publish flag and
// subscriber list are unaffected.
func Provide[V any](r *Realm, node tree.Node, v V) {
	r.ProvideType(node, typeOf[V](), v)
}

// ProvideType is the dynamically-keyed form of Provide, for hosts that
// construct value types at runtime. v's runtime type must be assignable to
// typ; the typed Resolve path reports *UnexpectedBindingTypeError when it
// is not.
func (r *Realm) ProvideType(node tree.Node, typ reflect.Type, v any) {
	st := r.state(node.ID())
	if st.reg == nil {
		st.reg = &registration{
			owner:  node.ID(),
			values: make(map[reflect.Type]any),
		}
	}
	st.reg.values[typ] = v
}

// Want declares a typed dependency slot on node. Declaring the same type
// twice is a no-op (slot keys are unique per dependent). Declaration order
// is preserved and determines gating order.
func Want[V any](r *Realm, node tree.Node) {
	r.WantType(node, typeOf[V]())
}

// WantType is the dynamically-keyed form of Want.
func (r *Realm) WantType(node tree.Node, typ reflect.Type) {
	st := r.state(node.ID())
	if _, ok := st.slots[typ]; ok {
		return
	}
	st.slots[typ] = &slot{valueType: typ}
	st.slotOrder = append(st.slotOrder, typ)
}

// RegisterGlobal installs a process-wide singleton for type V in the
// fallback registry. Globals are consulted only after an ancestor walk
// fails, and count as already published: the host's bootstrap sequence is
// expected to fully initialize them before the tree activates.
func RegisterGlobal[V any](r *Realm, v V) {
	r.RegisterGlobalType(typeOf[V](), v)
}

// RegisterGlobalType is the dynamically-keyed form of RegisterGlobal.
func (r *Realm) RegisterGlobalType(typ reflect.Type, v any) {
	r.globals[typ] = v
}

// Reenter resets node's resolution context for re-activation: all slot
// bindings are cleared, any pending gate is cancelled, and the provider's
// publish flag is reset. Declared slots and provided values survive.
func (r *Realm) Reenter(node tree.Node) {
	st, ok := r.nodes.Get(node.ID())
	if !ok {
		return
	}
	for _, sl := range st.slots {
		sl.provider = nil
	}
	if st.gate != nil {
		st.gate.cancel()
		st.gate = nil
	}
	if st.reg != nil {
		st.reg.published = false
	}
	r.logger.Debug("node re-entered", "node", node.ID())
}

// Forget drops every annotation for id. The host must call this from its
// destruction notification so that provider records and slots do not
// outlive the objects they describe.
func (r *Realm) Forget(id tree.NodeID) {
	if st, ok := r.nodes.Get(id); ok && st.gate != nil {
		st.gate.cancel()
	}
	r.nodes.Remove(id)
}

// Published reports whether node has published in its current activation.
func (r *Realm) Published(node tree.Node) bool {
	st, ok := r.nodes.Get(node.ID())
	return ok && st.reg != nil && st.reg.published
}

func typeOf[V any]() reflect.Type {
	return reflect.TypeOf((*V)(nil)).Elem()
}
