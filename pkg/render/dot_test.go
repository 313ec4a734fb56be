package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/nodeflow/pkg/codec"
	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/meta"
	"github.com/matzehuels/nodeflow/pkg/nodes"
)

func sample(t *testing.T, connect bool) (*graph.Graph, *meta.Registry) {
	t.Helper()
	reg := meta.NewRegistry()
	if err := nodes.Install(reg, codec.NewTable(), graph.NewCatalog()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	g := graph.New()
	k := nodes.NewConstant(2.5)
	k.Name = "a|b"
	d := nodes.NewDisplay()
	for _, n := range []*graph.Node{k, d} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	link := g.AddEdge
	if connect {
		link = g.Connect
	}
	if _, err := link(k.Outputs()[0], d.Inputs()[0]); err != nil {
		t.Fatalf("link: %v", err)
	}
	g.AddAnnotation(&graph.Annotation{Content: "note", Color: "#ffcc00"})
	return g, reg
}

func TestToDOT(t *testing.T) {
	g, _ := sample(t, true)
	dot := ToDOT(g, Options{})

	for _, want := range []string{
		"digraph G {",
		`n0 [label="a\|b\nConstant|{<o0> out}"];`,
		`n1 [label="{<i0> in}|Display"];`,
		`n0:o0 -> n1:i0 [tooltip="float64"];`,
		`a0 [shape=note, label="note", fillcolor="#ffcc00"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTPreviewEdgesDashed(t *testing.T) {
	g, _ := sample(t, false)
	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, "style=dashed") {
		t.Errorf("recorded edge should be dashed:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	g, reg := sample(t, true)
	dot := ToDOT(g, Options{Detailed: true, Types: reg})
	if !strings.Contains(dot, `\lvalue: 2.5\lstyle: Style\l`) {
		t.Errorf("detailed label missing properties:\n%s", dot)
	}
}

func TestToDOTSkipsEphemeral(t *testing.T) {
	g, _ := sample(t, true)
	drag := nodes.NewDisplay()
	drag.Ephemeral = true
	if err := g.AddNode(drag); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Connect(g.Nodes()[0].Outputs()[0], drag.Inputs()[0]); err != nil {
		t.Fatal(err)
	}

	dot := ToDOT(g, Options{})
	if strings.Contains(dot, "n2") || strings.Count(dot, "->") != 1 {
		t.Errorf("ephemeral node leaked into DOT:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	g, _ := sample(t, true)
	svg, err := RenderSVG(ToDOT(g, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("unexpected SVG header: %.200s", svg)
	}
}
