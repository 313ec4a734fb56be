package codec

import (
	"reflect"
	"slices"
	"sync"

	"github.com/beevik/etree"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/meta"
)

// SaveFunc writes v into el, an element tagged with the type name.
type SaveFunc func(el *etree.Element, v any) error

// LoadFunc reads a value back from an element written by the matching
// SaveFunc. The returned value must have the registered Go type.
type LoadFunc func(el *etree.Element) (any, error)

// Entry is one custom codec registration.
type Entry struct {
	Save SaveFunc
	Load LoadFunc
}

// Table holds per-type custom codecs. Entries are keyed by registered type
// name and are never removed.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Register adds a custom codec for the named type.
//
// The type name becomes an element tag, so it must be a valid tag name. A
// second registration for the same type fails with DUPLICATE_REGISTRATION
// and leaves the first one active.
func (t *Table) Register(typeName string, save SaveFunc, load LoadFunc) error {
	if err := errs.ValidateTagName(typeName); err != nil {
		return err
	}
	if save == nil || load == nil {
		return errs.New(errs.ErrCodeInvalidInput, "codec for %s needs both save and load", typeName)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[typeName]; ok {
		return errs.New(errs.ErrCodeDuplicate, "codec for %s already registered", typeName)
	}
	t.entries[typeName] = Entry{Save: save, Load: load}
	return nil
}

// Lookup returns the codec registered for typeName.
func (t *Table) Lookup(typeName string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[typeName]
	return e, ok
}

// Names returns the type names with a custom codec, sorted.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Customizable reports whether values of kind k can use a custom codec.
// Scalars, string lists, lists and maps always use their built-in form.
func Customizable(k meta.Kind) bool {
	switch k {
	case meta.KindScalar, meta.KindStringList, meta.KindList, meta.KindMap:
		return false
	}
	return true
}

// Register adds a typed custom codec for typ, whose Go type must be T.
// Types of a kind that is not [Customizable] are rejected with
// INVALID_INPUT.
func Register[T any](table *Table, typ *meta.Type, save func(*etree.Element, T) error, load func(*etree.Element) (T, error)) error {
	if !Customizable(typ.Kind()) {
		return errs.New(errs.ErrCodeInvalidInput, "%s is a %s type and always uses the built-in codec", typ.Name(), typ.Kind())
	}
	if want := reflect.TypeFor[T](); typ.GoType() != want {
		return errs.New(errs.ErrCodeTypeMismatch, "codec for %s handles %s, not %s", typ.Name(), want, typ.GoType())
	}
	return table.Register(typ.Name(),
		func(el *etree.Element, v any) error {
			tv, ok := v.(T)
			if !ok {
				return errs.New(errs.ErrCodeTypeMismatch, "%s codec got %T", typ.Name(), v)
			}
			return save(el, tv)
		},
		func(el *etree.Element) (any, error) {
			return load(el)
		},
	)
}
