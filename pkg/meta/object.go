package meta

import (
	"reflect"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Object gives property access to one entity or record instance.
type Object struct {
	reg *Registry
	typ *Type
	rv  reflect.Value
}

// ObjectOf binds x, which must be a non-nil pointer to a struct or a
// struct value. Objects bound to struct values are read-only.
func (r *Registry) ObjectOf(x any) (Object, error) {
	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return Object{}, errs.New(errs.ErrCodeInvalidValue, "cannot bind nil")
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Object{}, errs.New(errs.ErrCodeInvalidValue, "cannot bind nil %s", rv.Type())
	}
	t, err := r.TypeFor(rv.Type())
	if err != nil {
		return Object{}, err
	}
	switch t.kind {
	case KindEntity:
		return Object{reg: r, typ: t, rv: rv.Elem()}, nil
	case KindRecord:
		return Object{reg: r, typ: t, rv: rv}, nil
	default:
		return Object{}, errs.New(errs.ErrCodeUnsupported, "%s has no properties", describe(t))
	}
}

// Bind attaches t's descriptor to target. For entity types target is the
// entity pointer; for record types it is a pointer to the struct, as
// returned by [Type.New].
func (r *Registry) Bind(t *Type, target any) (Object, error) {
	if t.kind != KindEntity && t.kind != KindRecord {
		return Object{}, errs.New(errs.ErrCodeUnsupported, "%s has no properties", describe(t))
	}
	rv := reflect.ValueOf(target)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem() != t.structType() {
		return Object{}, errs.New(errs.ErrCodeInvalidValue, "cannot bind %T as %s", target, t.name)
	}
	return Object{reg: r, typ: t, rv: rv.Elem()}, nil
}

// Type returns the bound type.
func (o Object) Type() *Type { return o.typ }

// Get reads a property. Dynamic properties report the type of the value
// they currently hold; an empty dynamic slot yields the invalid Value.
func (o Object) Get(p *Property) (Value, error) {
	field := o.rv.FieldByIndex(p.index)
	if p.typ.kind == KindDynamic {
		if field.IsNil() {
			return Value{}, nil
		}
		return o.reg.NewValue(field.Interface())
	}
	return Value{typ: p.typ, data: field.Interface()}, nil
}

// Set converts v to the property type and writes it.
func (o Object) Set(p *Property, v Value) error {
	if !o.rv.CanSet() {
		return errs.New(errs.ErrCodeUnsupported, "%s is bound read-only", o.typ.name)
	}
	field := o.rv.FieldByIndex(p.index)
	ev, err := o.reg.convertElem(v, p.typ, field.Type())
	if err != nil {
		return errs.Wrap(errs.ErrCodeTypeMismatch, err, "property %s.%s", o.typ.name, p.name)
	}
	field.Set(ev)
	return nil
}

// Interface returns the bound instance: the entity pointer, or the record
// struct value.
func (o Object) Interface() any {
	if o.typ.kind == KindEntity {
		return o.rv.Addr().Interface()
	}
	return o.rv.Interface()
}
