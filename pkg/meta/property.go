package meta

import (
	"reflect"
	"strings"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// TagKey is the struct tag consulted for property names and flags.
const TagKey = "nodeflow"

// Property is one named, typed slot of an entity or record type.
type Property struct {
	name    string
	index   []int
	typ     *Type
	persist bool
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// Type returns the declared type of the property.
func (p *Property) Type() *Type { return p.typ }

// Persisted reports whether the property is saved with its owner.
func (p *Property) Persisted() bool { return p.persist }

// describeLocked derives the property list of a struct type, flattening
// embedded structs.
func (r *Registry) describeLocked(owner *Type, st reflect.Type) ([]*Property, error) {
	var props []*Property
	seen := make(map[string]bool)
	var walk func(st reflect.Type, prefix []int) error
	walk = func(st reflect.Type, prefix []int) error {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)
			index := append(cloneIndex(prefix), i)

			tag := f.Tag.Get(TagKey)
			if tag == "-" {
				continue
			}
			if f.Anonymous && f.IsExported() && f.Type.Kind() == reflect.Struct && tag == "" {
				if err := walk(f.Type, index); err != nil {
					return err
				}
				continue
			}
			if !f.IsExported() {
				continue
			}

			name, flags, _ := strings.Cut(tag, ",")
			if name == "" {
				name = f.Name
			}
			if err := errs.ValidatePropertyName(name); err != nil {
				return errs.Wrap(errs.ErrCodeInvalidName, err, "%s.%s", owner.name, f.Name)
			}
			if seen[name] {
				return errs.New(errs.ErrCodeDuplicate, "%s declares property %q twice", owner.name, name)
			}
			seen[name] = true

			pt, err := r.typeForLocked(f.Type)
			if err != nil {
				return errs.Wrap(errs.GetCode(err), err, "property %s.%s", owner.name, name)
			}
			props = append(props, &Property{
				name:    name,
				index:   index,
				typ:     pt,
				persist: !hasFlag(flags, "transient"),
			})
		}
		return nil
	}
	if err := walk(st, nil); err != nil {
		return nil, err
	}
	return props, nil
}

func hasFlag(flags, want string) bool {
	for flags != "" {
		var f string
		f, flags, _ = strings.Cut(flags, ",")
		if strings.TrimSpace(f) == want {
			return true
		}
	}
	return false
}

// cloneIndex copies an index path so sibling fields never share a backing array.
func cloneIndex(in []int) []int {
	out := make([]int, len(in), len(in)+1)
	copy(out, in)
	return out
}
