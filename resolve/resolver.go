package resolve

import (
	"reflect"

	"github.com/arborkit/arbor/tree"
)

// Resolve binds node's slot for type V and returns the provided value.
//
// The slot is declared implicitly if Want was not called first. On success
// the binding is cached in the slot, so a second Resolve for the same slot
// returns the identical provider without touching the tree. Fails with
// *ProviderNotFoundError when no ancestor publishes V and the fallback
// registry has no entry.
func Resolve[V any](r *Realm, node tree.Node) (V, error) {
	var zero V
	typ := typeOf[V]()

	reg, err := r.resolveSlot(node, typ)
	if err != nil {
		return zero, err
	}

	raw, ok := reg.values[typ]
	if !ok {
		// Binding exists but the provider no longer carries the type.
		return zero, &UnexpectedBindingTypeError{Want: typ, Got: nil, Dependent: node.ID()}
	}
	v, ok := raw.(V)
	if !ok {
		return zero, &UnexpectedBindingTypeError{Want: typ, Got: reflect.TypeOf(raw), Dependent: node.ID()}
	}
	return v, nil
}

// ResolveType is the dynamically-keyed form of Resolve. The returned value
// carries whatever runtime type the provider registered; callers that know
// the static type should prefer Resolve.
func (r *Realm) ResolveType(node tree.Node, typ reflect.Type) (any, error) {
	reg, err := r.resolveSlot(node, typ)
	if err != nil {
		return nil, err
	}
	raw, ok := reg.values[typ]
	if !ok {
		return nil, &UnexpectedBindingTypeError{Want: typ, Got: nil, Dependent: node.ID()}
	}
	return raw, nil
}

// ProviderOf resolves node's slot for type V and returns the identity of
// the bound provider. Global fallback providers report tree.InvalidID.
func ProviderOf[V any](r *Realm, node tree.Node) (tree.NodeID, error) {
	reg, err := r.resolveSlot(node, typeOf[V]())
	if err != nil {
		return tree.InvalidID, err
	}
	return reg.owner, nil
}

// resolveSlot locates the provider record for (node, typ), walking the
// ancestor chain and the fallback registry, and caches the result in the
// node's slot.
func (r *Realm) resolveSlot(node tree.Node, typ reflect.Type) (*registration, error) {
	st := r.state(node.ID())
	sl, ok := st.slots[typ]
	if !ok {
		sl = &slot{valueType: typ}
		st.slots[typ] = sl
		st.slotOrder = append(st.slotOrder, typ)
	}

	// Fast path: the slot is already bound.
	if sl.provider != nil {
		return sl.provider, nil
	}

	for anc := node.Parent(); anc != nil; anc = anc.Parent() {
		ast, ok := r.nodes.Get(anc.ID())
		if !ok {
			continue
		}
		if ast.reg != nil && ast.reg.provides(typ) {
			r.bind(node, sl, ast.reg, BindAncestor)
			return sl.provider, nil
		}
		// Borrow a chained dependent's binding rather than re-walking
		// from here. The segment between node and anc was just checked,
		// so the borrowed provider equals what a full walk from anc
		// would find. An unbound slot falls through to the normal walk.
		if asl, ok := ast.slots[typ]; ok && asl.provider != nil {
			r.bind(node, sl, asl.provider, BindBorrowed)
			return sl.provider, nil
		}
	}

	if reg := r.lookupGlobal(typ); reg != nil {
		r.bind(node, sl, reg, BindGlobal)
		return sl.provider, nil
	}

	r.logger.Debug("provider not found", "node", node.ID(), "type", typ.String())
	return nil, &ProviderNotFoundError{Type: typ, Dependent: node.ID()}
}

func (r *Realm) bind(node tree.Node, sl *slot, reg *registration, source BindSource) {
	sl.provider = reg
	r.logger.Debug("slot bound",
		"node", node.ID(),
		"type", sl.valueType.String(),
		"provider", reg.owner,
		"source", string(source),
	)
	if r.hooks.OnBind != nil {
		r.hooks.OnBind(node.ID(), sl.valueType, reg.owner, source)
	}
}

// lookupGlobal returns the fallback provider record for typ, building and
// caching it on the first successful lookup. Globals are born published.
func (r *Realm) lookupGlobal(typ reflect.Type) *registration {
	if reg, ok := r.globalCache[typ]; ok {
		return reg
	}
	v, ok := r.globals[typ]
	if !ok {
		return nil
	}
	reg := &registration{
		owner:     tree.InvalidID,
		published: true,
		values:    map[reflect.Type]any{typ: v},
	}
	r.globalCache[typ] = reg
	return reg
}
