package meta

import (
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Built-in type names. Element tags of string lists and dispatch-table
// types use these names verbatim.
const (
	TypeBool       = "bool"
	TypeInt        = "int"
	TypeInt8       = "int8"
	TypeInt16      = "int16"
	TypeInt32      = "int32"
	TypeInt64      = "int64"
	TypeUint       = "uint"
	TypeUint8      = "uint8"
	TypeUint16     = "uint16"
	TypeUint32     = "uint32"
	TypeUint64     = "uint64"
	TypeFloat32    = "float32"
	TypeFloat64    = "float64"
	TypeString     = "string"
	TypeBytes      = "bytes"
	TypeStringList = "stringlist"
	TypeList       = "list"
	TypeMap        = "map"
	TypeTime       = "time"
	TypeDuration   = "duration"
	TypeUUID       = "uuid"
	TypeVariant    = "variant"
)

// Registry maps type names to types and back.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Type
	byGo   map[reflect.Type]*Type
}

// TypeOption customizes a registration.
type TypeOption func(*typeConfig)

type typeConfig struct {
	ctor   func() any
	opaque bool
}

// WithConstructor sets the function used to create fresh entities during
// loading. Without one, entities are allocated with reflect.New.
func WithConstructor[T any](fn func() T) TypeOption {
	return func(c *typeConfig) {
		c.ctor = func() any { return fn() }
	}
}

// AsOpaque forces the binary fallback for the type regardless of its shape.
func AsOpaque() TypeOption {
	return func(c *typeConfig) { c.opaque = true }
}

// NewRegistry returns a registry pre-populated with the built-in types.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Type),
		byGo:   make(map[reflect.Type]*Type),
	}
	// variant comes first: list and map resolve their element type to it.
	builtins := []struct {
		name string
		rt   reflect.Type
	}{
		{TypeVariant, reflect.TypeFor[any]()},
		{TypeBool, reflect.TypeFor[bool]()},
		{TypeInt, reflect.TypeFor[int]()},
		{TypeInt8, reflect.TypeFor[int8]()},
		{TypeInt16, reflect.TypeFor[int16]()},
		{TypeInt32, reflect.TypeFor[int32]()},
		{TypeInt64, reflect.TypeFor[int64]()},
		{TypeUint, reflect.TypeFor[uint]()},
		{TypeUint8, reflect.TypeFor[uint8]()},
		{TypeUint16, reflect.TypeFor[uint16]()},
		{TypeUint32, reflect.TypeFor[uint32]()},
		{TypeUint64, reflect.TypeFor[uint64]()},
		{TypeFloat32, reflect.TypeFor[float32]()},
		{TypeFloat64, reflect.TypeFor[float64]()},
		{TypeString, reflect.TypeFor[string]()},
		{TypeBytes, reflect.TypeFor[[]byte]()},
		{TypeStringList, reflect.TypeFor[[]string]()},
		{TypeList, reflect.TypeFor[[]any]()},
		{TypeMap, reflect.TypeFor[map[string]any]()},
		{TypeTime, reflect.TypeFor[time.Time]()},
		{TypeDuration, durationType},
		{TypeUUID, reflect.TypeFor[uuid.UUID]()},
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range builtins {
		if _, err := r.registerLocked(b.rt, b.name, typeConfig{}); err != nil {
			panic(err)
		}
	}
	return r
}

// Register registers T under name.
//
// Registering the same Go type under the same name again returns the
// existing type. Reusing a name for a different Go type, or a Go type under
// a second name, fails with DUPLICATE_REGISTRATION.
func Register[T any](r *Registry, name string, opts ...TypeOption) (*Type, error) {
	return r.RegisterType(reflect.TypeFor[T](), name, opts...)
}

// MustRegister is like Register but panics on error. It is meant for
// package-level setup code.
func MustRegister[T any](r *Registry, name string, opts ...TypeOption) *Type {
	t, err := Register[T](r, name, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// RegisterType registers rt under name.
func (r *Registry) RegisterType(rt reflect.Type, name string, opts ...TypeOption) (*Type, error) {
	if rt == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "cannot register nil type")
	}
	if err := errs.ValidateTypeName(name); err != nil {
		return nil, err
	}
	var cfg typeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ctor != nil && rt.Kind() != reflect.Pointer {
		return nil, errs.New(errs.ErrCodeInvalidInput, "constructor given for non-entity type %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(rt, name, cfg)
}

func (r *Registry) registerLocked(rt reflect.Type, name string, cfg typeConfig) (*Type, error) {
	if t, ok := r.byName[name]; ok {
		if t.rtype == rt {
			return t, nil
		}
		return nil, errs.New(errs.ErrCodeDuplicate, "type name %q already registered for %s", name, t.rtype)
	}
	if t, ok := r.byGo[rt]; ok {
		return nil, errs.New(errs.ErrCodeDuplicate, "%s already registered as %q", rt, t.name)
	}

	t := &Type{
		name:  name,
		rtype: rt,
		kind:  classify(rt, errs.ValidateTagName(name) == nil),
		ctor:  cfg.ctor,
	}
	if cfg.opaque {
		t.kind = KindOpaque
	}
	if t.kind == KindScalar {
		t.text = textCodecFor(rt)
	}

	// Insert before resolving dependents so self-referential types terminate.
	r.byName[name] = t
	r.byGo[rt] = t

	if err := r.resolveLocked(t); err != nil {
		delete(r.byName, name)
		delete(r.byGo, rt)
		return nil, err
	}
	return t, nil
}

// resolveLocked fills in element types and property descriptors.
func (r *Registry) resolveLocked(t *Type) error {
	var err error
	switch t.kind {
	case KindStringList, KindList, KindMap:
		t.elem, err = r.typeForLocked(t.rtype.Elem())
	case KindEntity, KindRecord:
		t.props, err = r.describeLocked(t, t.structType())
		if err == nil {
			t.byName = make(map[string]*Property, len(t.props))
			for _, p := range t.props {
				t.byName[p.name] = p
			}
		}
	}
	return err
}

// Lookup resolves a registered type name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// TypeFor returns the type registered for rt, registering it under its Go
// type string on first use.
func (r *Registry) TypeFor(rt reflect.Type) (*Type, error) {
	if rt == nil {
		return nil, errs.New(errs.ErrCodeInvalidValue, "no type for nil")
	}
	r.mu.RLock()
	t, ok := r.byGo[rt]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.typeForLocked(rt)
}

func (r *Registry) typeForLocked(rt reflect.Type) (*Type, error) {
	if t, ok := r.byGo[rt]; ok {
		return t, nil
	}
	return r.registerLocked(rt, rt.String(), typeConfig{})
}

// Names returns every registered type name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Types returns every registered type ordered by name.
func (r *Registry) Types() []*Type {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name])
	}
	return out
}
