package meta

import (
	"fmt"
	"reflect"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Value is a payload tagged with its registered type.
// The zero Value is invalid.
type Value struct {
	typ  *Type
	data any
}

// MakeValue pairs data with t. The dynamic type of data must be t's Go type.
func MakeValue(t *Type, data any) (Value, error) {
	if t == nil {
		return Value{}, errs.New(errs.ErrCodeInvalidValue, "no type given")
	}
	if t.kind == KindDynamic {
		return Value{}, errs.New(errs.ErrCodeInvalidValue, "values of %s must carry a concrete type", t.name)
	}
	if rt := reflect.TypeOf(data); rt != t.rtype {
		return Value{}, errs.New(errs.ErrCodeTypeMismatch, "%v is not of type %s", rt, t.name)
	}
	return Value{typ: t, data: data}, nil
}

// NewValue wraps x, registering its Go type on first use.
func (r *Registry) NewValue(x any) (Value, error) {
	if x == nil {
		return Value{}, errs.New(errs.ErrCodeInvalidValue, "nil value")
	}
	t, err := r.TypeFor(reflect.TypeOf(x))
	if err != nil {
		return Value{}, err
	}
	return Value{typ: t, data: x}, nil
}

// ValueOf is like NewValue but returns the invalid Value on failure.
func (r *Registry) ValueOf(x any) Value {
	v, _ := r.NewValue(x)
	return v
}

// IsValid reports whether v carries a type.
func (v Value) IsValid() bool { return v.typ != nil }

// Type returns the type of v, or nil when v is invalid.
func (v Value) Type() *Type { return v.typ }

// Kind returns the kind of v's type.
func (v Value) Kind() Kind {
	if v.typ == nil {
		return KindInvalid
	}
	return v.typ.kind
}

// TypeName returns the registered name of v's type.
func (v Value) TypeName() string {
	if v.typ == nil {
		return ""
	}
	return v.typ.name
}

// Interface returns the payload.
func (v Value) Interface() any { return v.data }

// IsNil reports whether v is an entity value holding a nil pointer.
func (v Value) IsNil() bool {
	if v.Kind() != KindEntity {
		return false
	}
	return reflect.ValueOf(v.data).IsNil()
}

func (v Value) String() string {
	if v.typ == nil {
		return "<invalid>"
	}
	return fmt.Sprintf("%s(%v)", v.typ.name, v.data)
}
