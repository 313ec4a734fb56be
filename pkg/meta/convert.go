package meta

import (
	"math"
	"reflect"
	"strconv"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// DropFunc receives elements that could not be converted while building a
// container. A nil DropFunc makes the first failure fatal.
type DropFunc func(key string, err error)

// Convert converts v to type to.
//
// Values already of type to, assignable values and dynamic targets pass
// through. Numeric scalars convert directly; other scalars round-trip
// through their string form. Containers convert element by element.
// Anything else fails with TYPE_MISMATCH.
func (r *Registry) Convert(v Value, to *Type) (Value, error) {
	if !v.IsValid() {
		return Value{}, errs.New(errs.ErrCodeInvalidValue, "cannot convert invalid value to %s", to.name)
	}
	if to.kind == KindDynamic || v.typ == to {
		return v, nil
	}

	rv := reflect.ValueOf(v.data)
	if rv.Type().AssignableTo(to.rtype) {
		out := reflect.New(to.rtype).Elem()
		out.Set(rv)
		return Value{typ: to, data: out.Interface()}, nil
	}

	switch {
	case v.typ.kind == KindScalar && to.kind == KindScalar:
		if isNumeric(rv.Kind()) && isNumeric(to.rtype.Kind()) {
			out, ok := convertNumber(rv, to.rtype)
			if !ok {
				return Value{}, errs.New(errs.ErrCodeTypeMismatch, "%s value %v does not fit %s", v.typ.name, v.data, to.name)
			}
			return Value{typ: to, data: out.Interface()}, nil
		}
		s, err := v.typ.Format(v.data)
		if err != nil {
			return Value{}, errs.Wrap(errs.ErrCodeTypeMismatch, err, "convert %s to %s", v.typ.name, to.name)
		}
		x, err := to.Parse(s)
		if err != nil {
			return Value{}, errs.Wrap(errs.ErrCodeTypeMismatch, err, "convert %s to %s", v.typ.name, to.name)
		}
		return Value{typ: to, data: x}, nil

	case isSequence(v.typ.kind) && isSequence(to.kind):
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := r.elemValue(v.typ, rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			items[i] = item
		}
		return r.BuildList(to, items, nil)

	case v.typ.kind == KindMap && to.kind == KindMap:
		entries := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item, err := r.elemValue(v.typ, iter.Value())
			if err != nil {
				return Value{}, err
			}
			entries[iter.Key().String()] = item
		}
		return r.BuildMap(to, entries, nil)
	}

	return Value{}, errs.New(errs.ErrCodeTypeMismatch, "cannot convert %s to %s", describe(v.typ), describe(to))
}

// convertNumber converts rv to the numeric type rt. It fails when the
// value overflows rt, changes sign or loses a fractional part. Narrowing a
// float to float32 rounds.
func convertNumber(rv reflect.Value, rt reflect.Type) (reflect.Value, bool) {
	out := reflect.New(rt).Elem()
	switch {
	case isSigned(rt.Kind()):
		var i int64
		switch {
		case isSigned(rv.Kind()):
			i = rv.Int()
		case isFloat(rv.Kind()):
			f := rv.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return out, false
			}
			i = int64(f)
		default:
			u := rv.Uint()
			if u > math.MaxInt64 {
				return out, false
			}
			i = int64(u)
		}
		if out.OverflowInt(i) {
			return out, false
		}
		out.SetInt(i)
	case isFloat(rt.Kind()):
		var f float64
		switch {
		case isSigned(rv.Kind()):
			f = float64(rv.Int())
		case isFloat(rv.Kind()):
			f = rv.Float()
		default:
			f = float64(rv.Uint())
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && out.OverflowFloat(f) {
			return out, false
		}
		out.SetFloat(f)
	default:
		var u uint64
		switch {
		case isSigned(rv.Kind()):
			i := rv.Int()
			if i < 0 {
				return out, false
			}
			u = uint64(i)
		case isFloat(rv.Kind()):
			f := rv.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return out, false
			}
			u = uint64(f)
		default:
			u = rv.Uint()
		}
		if out.OverflowUint(u) {
			return out, false
		}
		out.SetUint(u)
	}
	return out, true
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

func isSequence(k Kind) bool { return k == KindList || k == KindStringList }

// Elements returns the items of a list or string list value.
func (r *Registry) Elements(v Value) ([]Value, error) {
	if !isSequence(v.Kind()) {
		return nil, errs.New(errs.ErrCodeTypeMismatch, "%s is not a list", v.TypeName())
	}
	rv := reflect.ValueOf(v.data)
	out := make([]Value, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := r.elemValue(v.typ, rv.Index(i))
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidValue, err, "%s element %d", v.typ.name, i)
		}
		out = append(out, item)
	}
	return out, nil
}

// Entries returns the entries of a map value keyed by their string key.
func (r *Registry) Entries(v Value) (map[string]Value, error) {
	if v.Kind() != KindMap {
		return nil, errs.New(errs.ErrCodeTypeMismatch, "%s is not a map", v.TypeName())
	}
	rv := reflect.ValueOf(v.data)
	out := make(map[string]Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		item, err := r.elemValue(v.typ, iter.Value())
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidValue, err, "%s entry %q", v.typ.name, key)
		}
		out[key] = item
	}
	return out, nil
}

// elemValue wraps one element of a container of type owner.
func (r *Registry) elemValue(owner *Type, ev reflect.Value) (Value, error) {
	if owner.elem.kind == KindDynamic {
		if ev.IsNil() {
			return Value{}, errs.New(errs.ErrCodeInvalidValue, "nil element")
		}
		return r.NewValue(ev.Interface())
	}
	return Value{typ: owner.elem, data: ev.Interface()}, nil
}

// BuildList assembles a list or string list of type to from items,
// converting each item to the element type.
func (r *Registry) BuildList(to *Type, items []Value, drop DropFunc) (Value, error) {
	if !isSequence(to.kind) {
		return Value{}, errs.New(errs.ErrCodeTypeMismatch, "%s is not a list type", to.name)
	}
	et := to.rtype.Elem()
	var out reflect.Value
	isArray := to.rtype.Kind() == reflect.Array
	if isArray {
		out = reflect.New(to.rtype).Elem()
	} else {
		out = reflect.MakeSlice(to.rtype, 0, len(items))
	}

	n := 0
	for i, item := range items {
		ev, err := r.convertElem(item, to.elem, et)
		if err == nil && isArray && n >= out.Len() {
			err = errs.New(errs.ErrCodeTypeMismatch, "%s holds at most %d elements", to.name, out.Len())
		}
		if err != nil {
			if drop == nil {
				return Value{}, err
			}
			drop(strconv.Itoa(i), err)
			continue
		}
		if isArray {
			out.Index(n).Set(ev)
		} else {
			out = reflect.Append(out, ev)
		}
		n++
	}
	return Value{typ: to, data: out.Interface()}, nil
}

// BuildMap assembles a map of type to from entries.
func (r *Registry) BuildMap(to *Type, entries map[string]Value, drop DropFunc) (Value, error) {
	if to.kind != KindMap {
		return Value{}, errs.New(errs.ErrCodeTypeMismatch, "%s is not a map type", to.name)
	}
	kt, et := to.rtype.Key(), to.rtype.Elem()
	out := reflect.MakeMapWithSize(to.rtype, len(entries))
	for key, item := range entries {
		ev, err := r.convertElem(item, to.elem, et)
		if err != nil {
			if drop == nil {
				return Value{}, err
			}
			drop(key, err)
			continue
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(kt), ev)
	}
	return Value{typ: to, data: out.Interface()}, nil
}

// convertElem converts item to elem and returns a reflect value assignable
// to the Go element type et.
func (r *Registry) convertElem(item Value, elem *Type, et reflect.Type) (reflect.Value, error) {
	c, err := r.Convert(item, elem)
	if err != nil {
		return reflect.Value{}, err
	}
	ev := reflect.ValueOf(c.data)
	if !ev.IsValid() {
		return reflect.Zero(et), nil
	}
	if !ev.Type().AssignableTo(et) {
		return reflect.Value{}, errs.New(errs.ErrCodeTypeMismatch, "%s cannot be stored as %s", c.TypeName(), et)
	}
	return ev, nil
}
