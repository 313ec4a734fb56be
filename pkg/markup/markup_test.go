package markup

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

func TestDocumentRoundTrip(t *testing.T) {
	doc, root := NewDocument("nodeflow")
	child := root.CreateElement(TagProperty)
	child.CreateAttr(AttrName, "count")
	SetInt(child, AttrValue, 42)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, DefaultIndent))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "\n  <property name=\"count\" value=\"42\"/>")

	back, err := Read(&buf)
	require.NoError(t, err)
	n, err := IntAttr(back.Root().SelectElement(TagProperty), AttrValue)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestBytesUnindented(t *testing.T) {
	doc, err := Parse([]byte("<a>\n  <b/>\n</a>"))
	require.NoError(t, err)
	data, err := Bytes(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, "<a><b/></a>", string(data))
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "just text"} {
		_, err := Parse([]byte(in))
		assert.True(t, errs.Is(err, errs.ErrCodeMalformed), "Parse(%q) = %v", in, err)
	}
}

func TestAttrs(t *testing.T) {
	doc, err := Parse([]byte(`<el n="7" f="2.5" bad="x"/>`))
	require.NoError(t, err)
	el := doc.Root()

	_, ok := Attr(el, "missing")
	assert.False(t, ok)
	_, err = RequireAttr(el, "missing")
	assert.True(t, errs.Is(err, errs.ErrCodeMalformed))

	n, err := IntAttr(el, "n")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	f, err := FloatAttr(el, "f")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	_, err = IntAttr(el, "bad")
	assert.True(t, errs.Is(err, errs.ErrCodeMalformed))
	_, err = FloatAttr(el, "bad")
	assert.True(t, errs.Is(err, errs.ErrCodeMalformed))
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		1:       "1",
		1.5:     "1.5",
		0.1:     "0.1",
		1e21:    "1e+21",
		-0.0005: "-0.0005",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFloat(in))
	}
}

func TestFirstChildAndPayload(t *testing.T) {
	doc, err := Parse([]byte("<a>\n  text\n  <b/><c/>\n</a>"))
	require.NoError(t, err)
	assert.Equal(t, "b", FirstChild(doc.Root()).Tag)
	assert.Equal(t, "text", Payload(doc.Root()))

	leaf := doc.Root().SelectElement("c")
	assert.Nil(t, FirstChild(leaf))
}
