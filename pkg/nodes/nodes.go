// Package nodes provides a small library of arithmetic node types.
//
// The library exists to give documents something concrete to hold: every
// node type keeps its state in a struct whose tagged fields are saved with
// the node, and all ports carry plain numbers.
//
// Call [Install] once at start-up to make the types loadable:
//
//	reg := meta.NewRegistry()
//	table := codec.NewTable()
//	catalog := graph.NewCatalog()
//	if err := nodes.Install(reg, table, catalog); err != nil {
//		return err
//	}
package nodes

import (
	"github.com/beevik/etree"

	"github.com/matzehuels/nodeflow/pkg/codec"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/meta"
)

// Node type names.
const (
	TypeConstant = "Constant"
	TypeAdd      = "Add"
	TypeMultiply = "Multiply"
	TypeDisplay  = "Display"
)

// Names of the record types.
const (
	TypeStyle = "Style"
	TypeRange = "Range"
)

// Transport is the transport type of every port in this package.
const Transport = meta.TypeFloat64

// Style is the visual look of a node. It is saved as a record.
type Style struct {
	Color string  `nodeflow:"color"`
	Width float64 `nodeflow:"width"`
}

// Range bounds a value. It is saved with its own compact codec:
//
//	<Range min="0" max="10"/>
type Range struct {
	Min, Max float64
}

// Empty reports whether r does not bound anything.
func (r Range) Empty() bool { return r.Max <= r.Min }

// Clamp limits v to r. An empty range returns v unchanged.
func (r Range) Clamp(v float64) float64 {
	if r.Empty() {
		return v
	}
	return min(max(v, r.Min), r.Max)
}

// Constant emits a fixed value.
type Constant struct {
	Value float64 `nodeflow:"value"`
	Style Style   `nodeflow:"style"`
}

// Add sums its inputs and adds Bias.
type Add struct {
	Bias float64 `nodeflow:"bias"`
}

// Multiply multiplies its inputs with Factor and clamps the product.
type Multiply struct {
	Factor float64 `nodeflow:"factor"`
	Clamp  Range   `nodeflow:"clamp"`
}

// Display shows the value arriving at its input.
type Display struct {
	Precision int               `nodeflow:"precision"`
	Unit      string            `nodeflow:"unit"`
	Tags      []string          `nodeflow:"tags"`
	Extras    map[string]any    `nodeflow:"extras"`
	History   []float64         `nodeflow:"history"`
	Last      float64           `nodeflow:"last,transient"`
	Cache     map[string]string `nodeflow:"-"`
}

// NewConstant creates a Constant node holding v.
func NewConstant(v float64) *graph.Node {
	n := graph.NewNode(TypeConstant, &Constant{Value: v})
	n.AddOutput("out", Transport)
	return n
}

// NewAdd creates an Add node with two inputs.
func NewAdd() *graph.Node {
	n := graph.NewNode(TypeAdd, &Add{})
	n.AddInput("a", Transport)
	n.AddInput("b", Transport)
	n.AddOutput("sum", Transport)
	return n
}

// NewMultiply creates a Multiply node with two inputs and a factor of one.
func NewMultiply() *graph.Node {
	n := graph.NewNode(TypeMultiply, &Multiply{Factor: 1})
	n.AddInput("a", Transport)
	n.AddInput("b", Transport)
	n.AddOutput("product", Transport)
	return n
}

// NewDisplay creates a Display node.
func NewDisplay() *graph.Node {
	n := graph.NewNode(TypeDisplay, &Display{Precision: 2})
	n.AddInput("in", Transport)
	return n
}

// Install registers the node types with reg, the Range codec with table
// and the node builders with catalog.
func Install(reg *meta.Registry, table *codec.Table, catalog *graph.Catalog) error {
	if _, err := meta.Register[Style](reg, TypeStyle); err != nil {
		return err
	}
	rt, err := meta.Register[Range](reg, TypeRange)
	if err != nil {
		return err
	}
	if err := codec.Register(table, rt, saveRange, loadRange); err != nil {
		return err
	}

	for _, b := range []struct {
		name  string
		build func() *graph.Node
		reg   func() error
	}{
		{TypeConstant, func() *graph.Node { return NewConstant(0) }, entity[*Constant](reg, TypeConstant)},
		{TypeAdd, NewAdd, entity[*Add](reg, TypeAdd)},
		{TypeMultiply, NewMultiply, entity[*Multiply](reg, TypeMultiply)},
		{TypeDisplay, NewDisplay, entity[*Display](reg, TypeDisplay)},
	} {
		if err := b.reg(); err != nil {
			return err
		}
		if err := catalog.Register(b.name, b.build); err != nil {
			return err
		}
	}
	return nil
}

func entity[T any](reg *meta.Registry, name string) func() error {
	return func() error {
		_, err := meta.Register[T](reg, name)
		return err
	}
}

func saveRange(el *etree.Element, r Range) error {
	markup.SetFloat(el, "min", r.Min)
	markup.SetFloat(el, "max", r.Max)
	return nil
}

func loadRange(el *etree.Element) (Range, error) {
	lo, err := markup.FloatAttr(el, "min")
	if err != nil {
		return Range{}, err
	}
	hi, err := markup.FloatAttr(el, "max")
	if err != nil {
		return Range{}, err
	}
	return Range{Min: lo, Max: hi}, nil
}
