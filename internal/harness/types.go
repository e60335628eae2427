package harness

import "reflect"

// typeRegistry synthesizes a distinct Go runtime type for each scenario
// value-type name. Resolution is keyed by reflect.Type, so two names must
// never alias: a struct tag carrying the name makes each synthesized type
// unique, and the registry caches both directions so traces report the
// scenario's own names.
type typeRegistry struct {
	byName map[string]reflect.Type
	names  map[reflect.Type]string
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{
		byName: make(map[string]reflect.Type),
		names:  make(map[reflect.Type]string),
	}
}

// typeFor returns the synthesized type for name, building it on first use.
func (t *typeRegistry) typeFor(name string) reflect.Type {
	if typ, ok := t.byName[name]; ok {
		return typ
	}
	typ := reflect.StructOf([]reflect.StructField{{
		Name: "Name",
		Type: reflect.TypeOf(""),
		Tag:  reflect.StructTag(`arbor:"` + name + `"`),
	}})
	t.byName[name] = typ
	t.names[typ] = name
	return typ
}

// nameOf maps a synthesized type back to its scenario name.
func (t *typeRegistry) nameOf(typ reflect.Type) string {
	if name, ok := t.names[typ]; ok {
		return name
	}
	return typ.String()
}

// instance returns the type for name together with a value of it, the
// field set to the name so resolved values are checkable.
func (t *typeRegistry) instance(name string) (reflect.Type, any) {
	typ := t.typeFor(name)
	v := reflect.New(typ).Elem()
	v.Field(0).SetString(name)
	return typ, v.Interface()
}
