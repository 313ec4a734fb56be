package graph

import (
	"errors"
	"slices"
	"testing"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

func pair(t *testing.T) (*Graph, *Port, *Port) {
	t.Helper()
	g := New()
	a := NewNode("Source", nil)
	out := a.AddOutput("out", "float64")
	b := NewNode("Sink", nil)
	in := b.AddInput("in", "float64")
	if err := g.AddNode(a); err != nil {
		t.Fatalf("AddNode(a): %v", err)
	}
	if err := g.AddNode(b); err != nil {
		t.Fatalf("AddNode(b): %v", err)
	}
	return g, out, in
}

func TestAddNode(t *testing.T) {
	g := New()
	n := NewNode("Source", nil)

	if err := g.AddNode(n); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(n); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("second AddNode = %v, want ErrDuplicateNode", err)
	}
	if err := g.AddNode(nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("AddNode(nil) = %v, want ErrNilNode", err)
	}
	if g.NodeCount() != 1 || !g.Contains(n) {
		t.Errorf("NodeCount = %d, Contains = %v", g.NodeCount(), g.Contains(n))
	}
}

func TestPorts(t *testing.T) {
	n := NewNode("Add", nil)
	a := n.AddInput("a", "float64")
	b := n.AddInput("b", "float64")
	sum := n.AddOutput("sum", "float64")

	if a.Index() != 0 || b.Index() != 1 || sum.Index() != 0 {
		t.Errorf("indices = %d %d %d, want 0 1 0", a.Index(), b.Index(), sum.Index())
	}
	if a.Direction() != Input || sum.Direction() != Output {
		t.Errorf("directions = %v %v", a.Direction(), sum.Direction())
	}
	if p, ok := n.Input(1); !ok || p != b {
		t.Errorf("Input(1) = %v, %v", p, ok)
	}
	if _, ok := n.Input(2); ok {
		t.Error("Input(2) should be out of range")
	}
	if _, ok := n.Output(-1); ok {
		t.Error("Output(-1) should be out of range")
	}
	if sum.Node() != n {
		t.Error("port does not point back at its node")
	}
}

func TestConnect(t *testing.T) {
	g, out, in := pair(t)

	e, err := g.Connect(out, in)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !e.Linked() {
		t.Error("edge should be linked")
	}
	if !out.Connected() || !in.Connected() {
		t.Error("both ports should report connected")
	}
	if peers := in.Peers(); len(peers) != 1 || peers[0] != out {
		t.Errorf("in.Peers() = %v, want [out]", peers)
	}
	if peers := out.Peers(); len(peers) != 1 || peers[0] != in {
		t.Errorf("out.Peers() = %v, want [in]", peers)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestAddEdgePreview(t *testing.T) {
	g, out, in := pair(t)

	e, err := g.AddEdge(out, in)
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if e.Linked() || out.Connected() || in.Connected() {
		t.Error("preview edge must not link ports")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestConnectErrors(t *testing.T) {
	g, out, in := pair(t)
	stranger := NewNode("Other", nil)
	foreign := stranger.AddInput("in", "float64")
	text := in.Node().AddInput("label", "string")

	tests := []struct {
		name     string
		from, to *Port
		want     error
	}{
		{"nil port", nil, in, ErrForeignPort},
		{"foreign node", out, foreign, ErrForeignPort},
		{"reversed", in, out, ErrPortDirection},
		{"transport", out, text, ErrTransportMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Connect(tt.from, tt.to); !errors.Is(err, tt.want) {
				t.Errorf("Connect = %v, want %v", err, tt.want)
			}
		})
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
}

func TestRemoveNode(t *testing.T) {
	g, out, in := pair(t)
	if _, err := g.Connect(out, in); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	g.RemoveNode(in.Node())

	if g.NodeCount() != 1 || g.EdgeCount() != 0 {
		t.Errorf("counts = %d nodes, %d edges, want 1, 0", g.NodeCount(), g.EdgeCount())
	}
	if out.Connected() {
		t.Error("surviving port should be unlinked")
	}
	g.RemoveNode(NewNode("Ghost", nil))
}

func TestAnnotations(t *testing.T) {
	g := New()
	g.AddAnnotation(&Annotation{Pos: Point{X: 1, Y: 2}, Content: "note", Width: 120, Color: "#ffcc00"})

	if len(g.Annotations()) != 1 || g.Annotations()[0].Content != "note" {
		t.Errorf("Annotations() = %v", g.Annotations())
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	build := func() *Node {
		n := NewNode("", nil)
		n.AddOutput("out", "float64")
		return n
	}

	if err := c.Register("Source", build); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := c.Register("Source", build); !errs.Is(err, errs.ErrCodeDuplicate) {
		t.Errorf("second Register = %v, want DUPLICATE_REGISTRATION", err)
	}
	if err := c.Register("", build); !errs.Is(err, errs.ErrCodeInvalidName) {
		t.Errorf("Register(\"\") = %v, want INVALID_NAME", err)
	}

	n, err := c.Create("Source")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n.Type != "Source" || len(n.Outputs()) != 1 {
		t.Errorf("Create returned %+v", n)
	}
	if other, _ := c.Create("Source"); other == n {
		t.Error("Create must return fresh nodes")
	}

	if _, err := c.Create("Missing"); !errs.Is(err, errs.ErrCodeUnknownType) {
		t.Errorf("Create(Missing) = %v, want UNKNOWN_TYPE", err)
	}
	if got := c.Types(); !slices.Equal(got, []string{"Source"}) {
		t.Errorf("Types() = %v", got)
	}
}

func TestFactoryFunc(t *testing.T) {
	var f Factory = FactoryFunc(func(name string) (*Node, error) {
		return NewNode(name, nil), nil
	})
	n, err := f.Create("X")
	if err != nil || n.Type != "X" {
		t.Errorf("Create = %v, %v", n, err)
	}
}
