package meta

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"time"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Kind is the persistence representation chosen for a type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindStringList
	KindList
	KindMap
	KindEntity
	KindRecord
	KindOpaque
	KindDynamic
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindScalar:     "scalar",
	KindStringList: "stringlist",
	KindList:       "list",
	KindMap:        "map",
	KindEntity:     "entity",
	KindRecord:     "record",
	KindOpaque:     "opaque",
	KindDynamic:    "dynamic",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	durationType        = reflect.TypeFor[time.Duration]()
)

// Type describes one registered Go type.
type Type struct {
	name  string
	rtype reflect.Type
	kind  Kind
	text  *textCodec
	elem  *Type

	props  []*Property
	byName map[string]*Property
	ctor   func() any
}

// Name returns the registered type name.
func (t *Type) Name() string { return t.name }

// Kind returns the persistence kind of the type.
func (t *Type) Kind() Kind { return t.kind }

// GoType returns the underlying Go type.
func (t *Type) GoType() reflect.Type { return t.rtype }

// Elem returns the element type of string lists, lists and maps, or nil.
func (t *Type) Elem() *Type { return t.elem }

func (t *Type) String() string { return t.name }

// Properties returns every property of an entity or record type in
// declaration order.
func (t *Type) Properties() []*Property { return t.props }

// Persisted returns the properties that are saved with the object.
func (t *Type) Persisted() []*Property {
	out := make([]*Property, 0, len(t.props))
	for _, p := range t.props {
		if p.persist {
			out = append(out, p)
		}
	}
	return out
}

// Property looks up a property by name.
func (t *Type) Property(name string) (*Property, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// Format returns the string form of a scalar value of this type.
func (t *Type) Format(v any) (string, error) {
	if t.text == nil {
		return "", errs.New(errs.ErrCodeUnconvertible, "type %s has no string form", t.name)
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != t.rtype {
		return "", errs.New(errs.ErrCodeUnconvertible, "value %T is not of type %s", v, t.name)
	}
	return t.text.format(rv)
}

// Parse converts a string into a value of this type.
func (t *Type) Parse(s string) (any, error) {
	if t.text == nil {
		return nil, errs.New(errs.ErrCodeUnconvertible, "type %s cannot be converted from a string", t.name)
	}
	rv, err := t.text.parse(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUnconvertible, err, "convert %q to %s", s, t.name)
	}
	return rv.Interface(), nil
}

// New returns a fresh instance for entity and record types. Entities are
// created through their constructor when one was registered; records are
// returned as a pointer to a zero struct so their properties can be set.
func (t *Type) New() (any, error) {
	switch t.kind {
	case KindEntity:
		if t.ctor != nil {
			obj := t.ctor()
			if rv := reflect.ValueOf(obj); !rv.IsValid() || rv.Type() != t.rtype || rv.IsNil() {
				return nil, errs.New(errs.ErrCodeInternal, "constructor for %s returned %T", t.name, obj)
			}
			return obj, nil
		}
		return reflect.New(t.rtype.Elem()).Interface(), nil
	case KindRecord:
		return reflect.New(t.rtype).Interface(), nil
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "type %s (%s) cannot be constructed", t.name, t.kind)
	}
}

// structType returns the struct type carrying the descriptor.
func (t *Type) structType() reflect.Type {
	if t.kind == KindEntity {
		return t.rtype.Elem()
	}
	return t.rtype
}

// textCodec is the reversible string conversion of a scalar type.
type textCodec struct {
	format func(reflect.Value) (string, error)
	parse  func(string) (reflect.Value, error)
}

func isTextType(rt reflect.Type) bool {
	return rt.Implements(textMarshalerType) && reflect.PointerTo(rt).Implements(textUnmarshalerType)
}

func isBytes(rt reflect.Type) bool {
	return rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8
}

func isBasic(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	return k != reflect.Bool && k != reflect.String && isBasic(k)
}

// textCodecFor builds the string conversion for rt, or returns nil.
func textCodecFor(rt reflect.Type) *textCodec {
	switch {
	case isTextType(rt):
		return &textCodec{
			format: func(v reflect.Value) (string, error) {
				b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
				return string(b), err
			},
			parse: func(s string) (reflect.Value, error) {
				p := reflect.New(rt)
				if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
					return reflect.Value{}, err
				}
				return p.Elem(), nil
			},
		}
	case rt == durationType:
		return &textCodec{
			format: func(v reflect.Value) (string, error) {
				return time.Duration(v.Int()).String(), nil
			},
			parse: func(s string) (reflect.Value, error) {
				d, err := time.ParseDuration(s)
				return reflect.ValueOf(d), err
			},
		}
	case isBytes(rt):
		return &textCodec{
			format: func(v reflect.Value) (string, error) {
				return base64.StdEncoding.EncodeToString(v.Bytes()), nil
			},
			parse: func(s string) (reflect.Value, error) {
				b, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return reflect.Value{}, err
				}
				return reflect.ValueOf(b).Convert(rt), nil
			},
		}
	}

	switch rt.Kind() {
	case reflect.Bool:
		return &textCodec{
			format: func(v reflect.Value) (string, error) { return strconv.FormatBool(v.Bool()), nil },
			parse: func(s string) (reflect.Value, error) {
				b, err := strconv.ParseBool(s)
				out := reflect.New(rt).Elem()
				out.SetBool(b)
				return out, err
			},
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &textCodec{
			format: func(v reflect.Value) (string, error) { return strconv.FormatInt(v.Int(), 10), nil },
			parse: func(s string) (reflect.Value, error) {
				n, err := strconv.ParseInt(s, 10, rt.Bits())
				out := reflect.New(rt).Elem()
				out.SetInt(n)
				return out, err
			},
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &textCodec{
			format: func(v reflect.Value) (string, error) { return strconv.FormatUint(v.Uint(), 10), nil },
			parse: func(s string) (reflect.Value, error) {
				n, err := strconv.ParseUint(s, 10, rt.Bits())
				out := reflect.New(rt).Elem()
				out.SetUint(n)
				return out, err
			},
		}
	case reflect.Float32, reflect.Float64:
		return &textCodec{
			format: func(v reflect.Value) (string, error) {
				return strconv.FormatFloat(v.Float(), 'g', -1, rt.Bits()), nil
			},
			parse: func(s string) (reflect.Value, error) {
				f, err := strconv.ParseFloat(s, rt.Bits())
				out := reflect.New(rt).Elem()
				out.SetFloat(f)
				return out, err
			},
		}
	case reflect.String:
		return &textCodec{
			format: func(v reflect.Value) (string, error) { return v.String(), nil },
			parse: func(s string) (reflect.Value, error) {
				out := reflect.New(rt).Elem()
				out.SetString(s)
				return out, nil
			},
		}
	}
	return nil
}

// classify chooses the kind of rt. Tag-safety of the name decides whether
// a slice of strings may use its own element tag.
func classify(rt reflect.Type, tagSafe bool) Kind {
	switch {
	case textCodecFor(rt) != nil:
		return KindScalar
	case rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.String && tagSafe:
		return KindStringList
	case rt.Kind() == reflect.Slice || rt.Kind() == reflect.Array:
		return KindList
	case rt.Kind() == reflect.Map && rt.Key().Kind() == reflect.String:
		return KindMap
	case rt.Kind() == reflect.Pointer && rt.Elem().Kind() == reflect.Struct:
		return KindEntity
	case rt.Kind() == reflect.Struct:
		return KindRecord
	case rt.Kind() == reflect.Interface:
		return KindDynamic
	default:
		return KindOpaque
	}
}

func describe(t *Type) string {
	return fmt.Sprintf("%s (%s, %s)", t.name, t.kind, t.rtype)
}
