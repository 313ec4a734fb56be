package nodes

import (
	"io"
	"testing"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nodeflow/pkg/codec"
	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/meta"
)

func installed(t *testing.T) (*codec.Codec, *graph.Catalog) {
	t.Helper()
	reg := meta.NewRegistry()
	table := codec.NewTable()
	catalog := graph.NewCatalog()
	require.NoError(t, Install(reg, table, catalog))
	return codec.New(reg, codec.WithTable(table), codec.WithLogger(log.New(io.Discard))), catalog
}

func TestInstall(t *testing.T) {
	c, catalog := installed(t)

	assert.Equal(t, []string{TypeAdd, TypeConstant, TypeDisplay, TypeMultiply}, catalog.Types())
	for _, name := range []string{TypeConstant, TypeAdd, TypeMultiply, TypeDisplay} {
		typ, ok := c.Types().Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, meta.KindEntity, typ.Kind(), name)
	}
	style, ok := c.Types().Lookup(TypeStyle)
	require.True(t, ok)
	assert.Equal(t, meta.KindRecord, style.Kind())
	assert.Equal(t, []string{TypeRange}, c.Table().Names())

	n, err := catalog.Create(TypeMultiply)
	require.NoError(t, err)
	assert.Len(t, n.Inputs(), 2)
	assert.Len(t, n.Outputs(), 1)
	assert.Equal(t, 1.0, n.Data.(*Multiply).Factor)
}

func TestInstallTwice(t *testing.T) {
	reg := meta.NewRegistry()
	table := codec.NewTable()
	catalog := graph.NewCatalog()
	require.NoError(t, Install(reg, table, catalog))

	err := Install(reg, table, catalog)
	assert.True(t, errs.Is(err, errs.ErrCodeDuplicate), "got %v", err)
}

func TestDisplayDescriptor(t *testing.T) {
	c, _ := installed(t)
	typ, _ := c.Types().Lookup(TypeDisplay)

	var names []string
	for _, p := range typ.Persisted() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"precision", "unit", "tags", "extras", "history"}, names)
	_, ok := typ.Property("last")
	assert.True(t, ok, "transient properties stay readable")
}

func TestRangeCodec(t *testing.T) {
	c, _ := installed(t)

	el := etree.NewElement(markup.TagProperty)
	require.NoError(t, c.EncodeValue(el, c.Types().ValueOf(Range{Min: -1, Max: 2.5}), "clamp"))

	child := markup.FirstChild(el)
	require.NotNil(t, child)
	assert.Equal(t, TypeRange, child.Tag)
	assert.Equal(t, "-1", child.SelectAttrValue("min", ""))
	assert.Equal(t, "2.5", child.SelectAttrValue("max", ""))

	v, name, err := c.DecodeValue(el)
	require.NoError(t, err)
	assert.Equal(t, "clamp", name)
	assert.Equal(t, Range{Min: -1, Max: 2.5}, v.Interface())
}

func TestNodeStateRoundTrip(t *testing.T) {
	c, _ := installed(t)

	src := &Display{
		Precision: 3,
		Unit:      "m/s",
		Tags:      []string{"speed", "front"},
		Extras:    map[string]any{"threshold": 4.5, "label": "v"},
		History:   []float64{1, 2.5},
		Last:      9,
	}
	data := etree.NewElement("data")
	require.NoError(t, c.SaveObject(data, src))

	dst := &Display{}
	require.NoError(t, c.LoadObject(data, dst))
	assert.Equal(t, src.Precision, dst.Precision)
	assert.Equal(t, src.Unit, dst.Unit)
	assert.Equal(t, src.Tags, dst.Tags)
	assert.Equal(t, src.Extras, dst.Extras)
	assert.Equal(t, src.History, dst.History)
	assert.Zero(t, dst.Last)

	mul := &Multiply{Factor: 2, Clamp: Range{Max: 10}}
	data = etree.NewElement("data")
	require.NoError(t, c.SaveObject(data, mul))
	got := &Multiply{}
	require.NoError(t, c.LoadObject(data, got))
	assert.Equal(t, mul, got)

	k := &Constant{Value: 4, Style: Style{Color: "teal", Width: 2}}
	data = etree.NewElement("data")
	require.NoError(t, c.SaveObject(data, k))
	assert.NotNil(t, data.FindElement("./property[@name='style']/qgadget"))
	gotK := &Constant{}
	require.NoError(t, c.LoadObject(data, gotK))
	assert.Equal(t, k, gotK)
}

func TestRangeClamp(t *testing.T) {
	tests := []struct {
		r    Range
		v    float64
		want float64
	}{
		{Range{}, 42, 42},
		{Range{Min: 0, Max: 10}, 42, 10},
		{Range{Min: 0, Max: 10}, -3, 0},
		{Range{Min: 0, Max: 10}, 5, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.r.Clamp(tt.v), "%+v.Clamp(%v)", tt.r, tt.v)
	}
}

func TestEval(t *testing.T) {
	g := graph.New()
	two, three := NewConstant(2), NewConstant(3)
	add, mul, disp := NewAdd(), NewMultiply(), NewDisplay()
	mul.Data.(*Multiply).Factor = 10
	for _, n := range []*graph.Node{two, three, add, mul, disp} {
		require.NoError(t, g.AddNode(n))
	}
	connect := func(from *graph.Node, out int, to *graph.Node, in int) {
		p, _ := from.Output(out)
		q, _ := to.Input(in)
		_, err := g.Connect(p, q)
		require.NoError(t, err)
	}
	connect(two, 0, add, 0)
	connect(three, 0, add, 1)
	connect(add, 0, mul, 0)
	connect(mul, 0, disp, 0)

	vals, err := Eval(g)
	require.NoError(t, err)
	assert.Equal(t, 5.0, vals[add])
	assert.Equal(t, 50.0, vals[mul])
	assert.Equal(t, 50.0, vals[disp])
	assert.Equal(t, 50.0, disp.Data.(*Display).Last)
}

func TestEvalCycle(t *testing.T) {
	g := graph.New()
	a, b := NewAdd(), NewAdd()
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	_, err := g.Connect(a.Outputs()[0], b.Inputs()[0])
	require.NoError(t, err)
	_, err = g.Connect(b.Outputs()[0], a.Inputs()[0])
	require.NoError(t, err)

	_, err = Eval(g)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestEvalIgnoresRecordedEdges(t *testing.T) {
	g := graph.New()
	k, disp := NewConstant(7), NewDisplay()
	require.NoError(t, g.AddNode(k))
	require.NoError(t, g.AddNode(disp))
	_, err := g.AddEdge(k.Outputs()[0], disp.Inputs()[0])
	require.NoError(t, err)

	vals, err := Eval(g)
	require.NoError(t, err)
	assert.Zero(t, vals[disp])
}
