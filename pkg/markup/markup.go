// Package markup provides the tree document model used by the nodeflow codecs.
//
// Documents are [etree] trees: elements with a tag, attributes, ordered child
// elements and an optional text payload. This package adds the reserved
// names of the wire format, typed attribute access and deterministic
// reading and writing.
//
// # Wire Format Names
//
// The value codec owns a small vocabulary of tags and attributes. They are
// part of the document format and must never change:
//
//	<property type="int" name="count" value="42"/>
//	<property type="list" name="items">
//	  <list>
//	    <listEntry type="int" value="1"/>
//	  </list>
//	</property>
//
// Generic containers are tagged [TagList] and [TagMap]; reflectable entities
// and records are tagged [TagObject] and [TagRecord].
//
// [etree]: https://github.com/beevik/etree
package markup

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Reserved element tags.
const (
	TagProperty  = "property"
	TagListEntry = "listEntry"
	TagMapEntry  = "mapEntry"
	TagObject    = "qobject"
	TagRecord    = "qgadget"
	TagList      = "list"
	TagMap       = "map"
)

// Reserved attribute names.
const (
	AttrName  = "name"
	AttrType  = "type"
	AttrValue = "value"
	AttrKey   = "key"
)

// DefaultIndent is the number of spaces used per nesting level when writing.
const DefaultIndent = 2

// NewDocument creates a document with an XML declaration and a root element.
func NewDocument(rootTag string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalAttrVal = true
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(rootTag)
	return doc, root
}

// Parse reads a document from bytes.
// A document without a root element is reported as malformed.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errs.Wrap(errs.ErrCodeMalformed, err, "parse document")
	}
	if doc.Root() == nil {
		return nil, errs.New(errs.ErrCodeMalformed, "document has no root element")
	}
	return doc, nil
}

// Read reads a document from r. Read does not close r.
func Read(r io.Reader) (*etree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// Bytes serializes doc with the given indentation.
// An indent of zero or less writes the document without added whitespace.
// Tabs, newlines and carriage returns in attribute values are written as
// character references so they survive a parse.
func Bytes(doc *etree.Document, indent int) ([]byte, error) {
	doc.WriteSettings.CanonicalAttrVal = true
	if indent > 0 {
		doc.Indent(indent)
	} else {
		doc.Unindent()
	}
	return doc.WriteToBytes()
}

// Write serializes doc to w with the given indentation.
func Write(w io.Writer, doc *etree.Document, indent int) error {
	data, err := Bytes(doc, indent)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(el *etree.Element, name string) (string, bool) {
	a := el.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// RequireAttr returns the named attribute or a malformed-document error.
func RequireAttr(el *etree.Element, name string) (string, error) {
	v, ok := Attr(el, name)
	if !ok {
		return "", errs.New(errs.ErrCodeMalformed, "<%s> is missing attribute %q", el.Tag, name)
	}
	return v, nil
}

// IntAttr parses a required integer attribute.
func IntAttr(el *etree.Element, name string) (int, error) {
	s, err := RequireAttr(el, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeMalformed, err, "<%s> attribute %q is not an integer", el.Tag, name)
	}
	return n, nil
}

// FloatAttr parses a required floating point attribute.
func FloatAttr(el *etree.Element, name string) (float64, error) {
	s, err := RequireAttr(el, name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeMalformed, err, "<%s> attribute %q is not a number", el.Tag, name)
	}
	return f, nil
}

// SetInt writes an integer attribute.
func SetInt(el *etree.Element, name string, v int) {
	el.CreateAttr(name, strconv.Itoa(v))
}

// SetFloat writes a floating point attribute in its shortest exact form.
func SetFloat(el *etree.Element, name string, v float64) {
	el.CreateAttr(name, FormatFloat(v))
}

// FormatFloat formats v in the shortest form that parses back to v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ValidText reports whether s can be stored in a document: valid UTF-8
// made of characters XML 1.0 allows.
func ValidText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t', r == '\n', r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}

// FirstChild returns the first child element of el, or nil.
func FirstChild(el *etree.Element) *etree.Element {
	for _, t := range el.Child {
		if c, ok := t.(*etree.Element); ok {
			return c
		}
	}
	return nil
}

// Payload returns the text content of el with indentation whitespace removed.
func Payload(el *etree.Element) string {
	return strings.TrimSpace(el.Text())
}
