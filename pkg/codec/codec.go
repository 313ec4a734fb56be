// Package codec converts runtime values and object properties to and from
// markup elements.
//
// A [Codec] combines a type registry, an optional dispatch [Table] of
// custom per-type codecs and a [Binary] fallback. Encoding picks exactly one
// representation per value, first match wins:
//
//  1. scalars become a value attribute
//  2. string lists become a child tagged with the type name
//  3. other lists and maps become list or map children
//  4. types with a custom codec become a child tagged with the type name
//  5. entities and records become qobject and qgadget children
//  6. everything else is stored as base64 binary text
//
// Decoding resolves the type attribute first and fails closed on names the
// registry does not know.
//
// # Errors
//
// Failures carry codes from the errors package. Collection elements that
// decode but cannot be converted to the target element type are dropped
// with a warning; a collection entry that fails to decode fails the whole
// collection. Object codecs keep going after a failed property and return
// the joined errors.
package codec

import (
	"encoding/base64"
	"reflect"
	"slices"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/meta"
)

// Codec encodes and decodes values against one type registry.
type Codec struct {
	types  *meta.Registry
	table  *Table
	binary Binary
	logger *log.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithTable sets the dispatch table of custom codecs.
func WithTable(t *Table) Option {
	return func(c *Codec) { c.table = t }
}

// WithBinary sets the fallback binary codec. The default is MessagePack.
func WithBinary(b Binary) Option {
	return func(c *Codec) { c.binary = b }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Codec) { c.logger = l }
}

// New creates a codec over types.
func New(types *meta.Registry, opts ...Option) *Codec {
	c := &Codec{types: types}
	for _, opt := range opts {
		opt(c)
	}
	if c.table == nil {
		c.table = NewTable()
	}
	if c.binary == nil {
		c.binary = MsgPack{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Types returns the registry the codec resolves type names against.
func (c *Codec) Types() *meta.Registry { return c.types }

// Table returns the dispatch table.
func (c *Codec) Table() *Table { return c.table }

// Logger returns the codec's logger.
func (c *Codec) Logger() *log.Logger { return c.logger }

// fail logs err where it is detected and returns it.
func (c *Codec) fail(err error) error {
	c.logger.Error(errs.UserMessage(err), "code", errs.GetCode(err))
	return err
}

// annotate adds context to an error that was already logged, keeping its code.
func annotate(err error, format string, args ...any) error {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	return errs.Wrap(code, err, format, args...)
}

// visiting holds the entities on the current encode path.
type visiting map[any]bool

// EncodeValue writes v into el. It always sets the type attribute and sets
// the name attribute when name is non-empty. An entity that refers back to
// itself, directly or through other values, fails with INVALID_VALUE.
func (c *Codec) EncodeValue(el *etree.Element, v meta.Value, name string) error {
	return c.encodeValue(el, v, name, nil)
}

func (c *Codec) encodeValue(el *etree.Element, v meta.Value, name string, seen visiting) error {
	if !v.IsValid() {
		return c.fail(errs.New(errs.ErrCodeInvalidValue, "cannot save invalid value %q", name))
	}
	t := v.Type()
	el.CreateAttr(markup.AttrType, t.Name())
	if name != "" {
		el.CreateAttr(markup.AttrName, name)
	}

	switch t.Kind() {
	case meta.KindScalar:
		s, err := t.Format(v.Interface())
		if err != nil {
			return c.fail(errs.Wrap(errs.ErrCodeUnconvertible, err, "format %s", t.Name()))
		}
		if !markup.ValidText(s) {
			return c.fail(errs.New(errs.ErrCodeUnconvertible, "%s value %q has characters a document cannot hold", t.Name(), s))
		}
		el.CreateAttr(markup.AttrValue, s)
		return nil

	case meta.KindStringList:
		return c.encodeList(el.CreateElement(t.Name()), v, seen)

	case meta.KindList:
		return c.encodeList(el.CreateElement(markup.TagList), v, seen)

	case meta.KindMap:
		return c.encodeMap(el.CreateElement(markup.TagMap), v, seen)
	}

	if entry, ok := c.custom(t); ok {
		child := el.CreateElement(t.Name())
		if err := entry.Save(child, v.Interface()); err != nil {
			el.RemoveChild(child)
			return c.fail(errs.Wrap(errs.ErrCodeCodec, err, "custom codec for %s", t.Name()))
		}
		return nil
	}

	switch t.Kind() {
	case meta.KindEntity:
		if v.IsNil() {
			return c.fail(errs.New(errs.ErrCodeInvalidValue, "cannot save nil %s", t.Name()))
		}
		return c.saveObject(el.CreateElement(markup.TagObject), v.Interface(), seen)

	case meta.KindRecord:
		return c.saveObject(el.CreateElement(markup.TagRecord), v.Interface(), seen)
	}

	data, err := c.binary.Marshal(v.Interface())
	if err != nil {
		return c.fail(errs.Wrap(errs.ErrCodeCodec, err, "%s encode %s", c.binary.Name(), t.Name()))
	}
	el.SetText(base64.StdEncoding.EncodeToString(data))
	return nil
}

func (c *Codec) encodeList(child *etree.Element, v meta.Value, seen visiting) error {
	items, err := c.types.Elements(v)
	if err != nil {
		return c.fail(errs.Wrap(errs.ErrCodeInvalidValue, err, "save %s", v.TypeName()))
	}
	for _, item := range items {
		if err := c.encodeValue(child.CreateElement(markup.TagListEntry), item, "", seen); err != nil {
			return err
		}
	}
	return nil
}

func (c *Codec) encodeMap(child *etree.Element, v meta.Value, seen visiting) error {
	entries, err := c.types.Entries(v)
	if err != nil {
		return c.fail(errs.Wrap(errs.ErrCodeInvalidValue, err, "save %s", v.TypeName()))
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !markup.ValidText(k) {
			return c.fail(errs.New(errs.ErrCodeUnconvertible, "map key %q has characters a document cannot hold", k))
		}
		entry := child.CreateElement(markup.TagMapEntry)
		entry.CreateAttr(markup.AttrKey, k)
		if err := c.encodeValue(entry, entries[k], "", seen); err != nil {
			return err
		}
	}
	return nil
}

// DecodeValue reads a value and its optional name from el.
func (c *Codec) DecodeValue(el *etree.Element) (meta.Value, string, error) {
	name, _ := markup.Attr(el, markup.AttrName)
	typeName, ok := markup.Attr(el, markup.AttrType)
	if !ok {
		return meta.Value{}, name, c.fail(errs.New(errs.ErrCodeMalformed, "<%s> has no type attribute", el.Tag))
	}
	t, ok := c.types.Lookup(typeName)
	if !ok {
		return meta.Value{}, name, c.fail(errs.New(errs.ErrCodeUnknownType, "unknown meta type %q", typeName))
	}

	v, err := c.decodeAs(el, t)
	return v, name, err
}

func (c *Codec) decodeAs(el *etree.Element, t *meta.Type) (meta.Value, error) {
	child := markup.FirstChild(el)
	if child == nil {
		if s, ok := markup.Attr(el, markup.AttrValue); ok {
			x, err := t.Parse(s)
			if err != nil {
				return meta.Value{}, c.fail(errs.Wrap(errs.ErrCodeUnconvertible, err, "value of %s", t.Name()))
			}
			return meta.MakeValue(t, x)
		}
		if text := markup.Payload(el); text != "" {
			return c.decodeBinary(text, t)
		}
		return meta.Value{}, c.fail(errs.New(errs.ErrCodeMalformed, "%s value has no content", t.Name()))
	}

	switch {
	case child.Tag == t.Name():
		if entry, ok := c.custom(t); ok {
			x, err := entry.Load(child)
			if err != nil {
				return meta.Value{}, c.fail(errs.Wrap(errs.ErrCodeCodec, err, "custom codec for %s", t.Name()))
			}
			v, err := meta.MakeValue(t, x)
			if err != nil {
				return meta.Value{}, c.fail(errs.Wrap(errs.ErrCodeCodec, err, "custom codec for %s", t.Name()))
			}
			return v, nil
		}
		switch t.Kind() {
		case meta.KindStringList, meta.KindList:
			return c.decodeList(child, t)
		case meta.KindMap:
			return c.decodeMap(child, t)
		}
		return meta.Value{}, c.fail(errs.New(errs.ErrCodeMalformed, "unknown type node <%s>", child.Tag))

	case child.Tag == markup.TagList && (t.Kind() == meta.KindList || t.Kind() == meta.KindStringList):
		return c.decodeList(child, t)

	case child.Tag == markup.TagMap && t.Kind() == meta.KindMap:
		return c.decodeMap(child, t)

	case child.Tag == markup.TagObject && t.Kind() == meta.KindEntity,
		child.Tag == markup.TagRecord && t.Kind() == meta.KindRecord:
		return c.decodeObject(child, t)
	}

	return meta.Value{}, c.fail(errs.New(errs.ErrCodeMalformed, "unexpected <%s> for %s", child.Tag, t.Name()))
}

// custom returns the dispatch-table codec for t. Scalars and containers
// never use one: they are encoded before the table is consulted.
func (c *Codec) custom(t *meta.Type) (Entry, bool) {
	if !Customizable(t.Kind()) {
		return Entry{}, false
	}
	return c.table.Lookup(t.Name())
}

func (c *Codec) decodeBinary(text string, t *meta.Type) (meta.Value, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return meta.Value{}, c.fail(errs.Wrap(errs.ErrCodeCodec, err, "decode %s payload", t.Name()))
	}
	target := reflect.New(t.GoType())
	if err := c.binary.Unmarshal(data, target.Interface()); err != nil {
		return meta.Value{}, c.fail(errs.Wrap(errs.ErrCodeCodec, err, "%s decode %s", c.binary.Name(), t.Name()))
	}
	return meta.MakeValue(t, target.Elem().Interface())
}

func (c *Codec) decodeList(child *etree.Element, t *meta.Type) (meta.Value, error) {
	var items []meta.Value
	for _, entry := range child.ChildElements() {
		if entry.Tag != markup.TagListEntry {
			return meta.Value{}, c.fail(errs.New(errs.ErrCodeMalformed, "unexpected <%s> in %s", entry.Tag, t.Name()))
		}
		item, _, err := c.DecodeValue(entry)
		if err != nil {
			return meta.Value{}, annotate(err, "%s element %d", t.Name(), len(items))
		}
		items = append(items, item)
	}
	return c.types.BuildList(t, items, c.dropper(t))
}

func (c *Codec) decodeMap(child *etree.Element, t *meta.Type) (meta.Value, error) {
	entries := make(map[string]meta.Value)
	for _, entry := range child.ChildElements() {
		if entry.Tag != markup.TagMapEntry {
			return meta.Value{}, c.fail(errs.New(errs.ErrCodeMalformed, "unexpected <%s> in %s", entry.Tag, t.Name()))
		}
		key, err := markup.RequireAttr(entry, markup.AttrKey)
		if err != nil {
			return meta.Value{}, c.fail(err)
		}
		item, _, err := c.DecodeValue(entry)
		if err != nil {
			return meta.Value{}, annotate(err, "%s entry %q", t.Name(), key)
		}
		entries[key] = item
	}
	return c.types.BuildMap(t, entries, c.dropper(t))
}

// dropper logs collection elements that could not be converted.
func (c *Codec) dropper(t *meta.Type) meta.DropFunc {
	return func(key string, err error) {
		c.logger.Warn("dropping collection element", "type", t.Name(), "element", key, "err", err)
	}
}

func (c *Codec) decodeObject(child *etree.Element, t *meta.Type) (meta.Value, error) {
	target, err := t.New()
	if err != nil {
		return meta.Value{}, c.fail(errs.Wrap(errs.ErrCodeInternal, err, "create %s", t.Name()))
	}
	obj, err := c.types.Bind(t, target)
	if err != nil {
		return meta.Value{}, c.fail(errs.Wrap(errs.ErrCodeInternal, err, "bind %s", t.Name()))
	}
	if err := c.loadObject(child, obj); err != nil {
		return meta.Value{}, annotate(err, "load %s", t.Name())
	}
	return meta.MakeValue(t, obj.Interface())
}
