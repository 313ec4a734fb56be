package codec

import (
	"errors"

	"github.com/beevik/etree"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/meta"
)

// SaveProperty appends a property element for p to container. On failure
// the partially written element is removed again.
func (c *Codec) SaveProperty(container *etree.Element, obj meta.Object, p *meta.Property) (*etree.Element, error) {
	return c.saveProperty(container, obj, p, nil)
}

func (c *Codec) saveProperty(container *etree.Element, obj meta.Object, p *meta.Property, seen visiting) (*etree.Element, error) {
	el := container.CreateElement(markup.TagProperty)
	v, err := obj.Get(p)
	switch {
	case err != nil:
		err = c.fail(err)
	case !v.IsValid():
		err = c.fail(errs.New(errs.ErrCodeInvalidValue, "property %s.%s is empty", obj.Type().Name(), p.Name()))
	default:
		err = c.encodeValue(el, v, p.Name(), seen)
	}
	if err != nil {
		container.RemoveChild(el)
		return nil, annotate(err, "save property %s", p.Name())
	}
	return el, nil
}

// LoadProperty reads one property element into obj.
//
// Properties the live type does not declare are skipped with a warning so
// documents written by older or newer builds still load. A decoded value
// that cannot be converted to the declared type fails with TYPE_MISMATCH.
func (c *Codec) LoadProperty(obj meta.Object, el *etree.Element) error {
	name, err := markup.RequireAttr(el, markup.AttrName)
	if err != nil {
		return c.fail(err)
	}
	p, ok := obj.Type().Property(name)
	if !ok {
		drift := errs.New(errs.ErrCodeUnknownProperty, "%s has no property %q", obj.Type().Name(), name)
		c.logger.Warn("skipping unknown property", "code", errs.GetCode(drift), "err", drift)
		return nil
	}
	v, _, err := c.DecodeValue(el)
	if err != nil {
		return annotate(err, "load property %s", name)
	}
	if err := obj.Set(p, v); err != nil {
		return c.fail(errs.Wrap(errs.ErrCodeTypeMismatch, err, "load property %s", name))
	}
	return nil
}

// SaveObject writes the persisted properties of x into container in
// declaration order. x is an entity pointer or a record value. Saving
// continues past failed properties; the joined errors are returned.
func (c *Codec) SaveObject(container *etree.Element, x any) error {
	return c.saveObject(container, x, nil)
}

func (c *Codec) saveObject(container *etree.Element, x any, seen visiting) error {
	obj, err := c.types.ObjectOf(x)
	if err != nil {
		return c.fail(err)
	}
	if obj.Type().Kind() == meta.KindEntity {
		if seen[x] {
			return c.fail(errs.New(errs.ErrCodeInvalidValue, "%s refers back to itself", obj.Type().Name()))
		}
		if seen == nil {
			seen = make(visiting)
		}
		seen[x] = true
		defer delete(seen, x)
	}
	var failed []error
	for _, p := range obj.Type().Persisted() {
		if _, err := c.saveProperty(container, obj, p, seen); err != nil {
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}

// LoadObject reads the property children of container into x, which must
// be a pointer to a struct. Loading continues past failed properties; the
// joined errors are returned.
func (c *Codec) LoadObject(container *etree.Element, x any) error {
	obj, err := c.types.ObjectOf(x)
	if err != nil {
		return c.fail(err)
	}
	return c.loadObject(container, obj)
}

func (c *Codec) loadObject(container *etree.Element, obj meta.Object) error {
	var failed []error
	for _, el := range container.SelectElements(markup.TagProperty) {
		if err := c.LoadProperty(obj, el); err != nil {
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}
