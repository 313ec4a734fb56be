package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/meta"
)

// Options configures diagram generation.
type Options struct {
	// Detailed includes persisted scalar properties in node labels.
	Detailed bool

	// Types reads node properties when Detailed is set.
	Types *meta.Registry
}

// ToDOT converts g to Graphviz DOT source.
// Ephemeral nodes and the edges touching them are left out.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	ids := make(map[*graph.Node]string, g.NodeCount())
	for _, n := range g.Nodes() {
		if n.Ephemeral {
			continue
		}
		id := "n" + strconv.Itoa(len(ids))
		ids[n] = id
		fmt.Fprintf(&buf, "  %s [label=%s];\n", id, quote(recordLabel(n, opts)))
	}

	if len(g.Edges()) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range g.Edges() {
		from, okFrom := ids[e.From.Node()]
		to, okTo := ids[e.To.Node()]
		if !okFrom || !okTo {
			continue
		}
		attrs := []string{fmt.Sprintf("tooltip=%q", e.From.Transport)}
		if !e.Linked() {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&buf, "  %s:o%d -> %s:i%d [%s];\n", from, e.From.Index(), to, e.To.Index(), strings.Join(attrs, ", "))
	}

	if len(g.Annotations()) > 0 {
		buf.WriteString("\n")
	}
	for i, a := range g.Annotations() {
		attrs := []string{"shape=note", fmt.Sprintf("label=%q", a.Content)}
		if a.Color != "" {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", a.Color))
		}
		fmt.Fprintf(&buf, "  a%d [%s];\n", i, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// recordLabel builds "{inputs}|title|{outputs}" with one anchored field per
// port.
func recordLabel(n *graph.Node, opts Options) string {
	var parts []string
	if in := ports(n.Inputs(), "i"); in != "" {
		parts = append(parts, "{"+in+"}")
	}

	title := escape(n.Type)
	if n.Name != "" && n.Name != n.Type {
		title = escape(n.Name) + `\n` + title
	}
	if opts.Detailed && opts.Types != nil {
		for _, line := range properties(n, opts.Types) {
			title += `\l` + escape(line)
		}
		title += `\l`
	}
	parts = append(parts, title)

	if out := ports(n.Outputs(), "o"); out != "" {
		parts = append(parts, "{"+out+"}")
	}
	return strings.Join(parts, "|")
}

func ports(ps []*graph.Port, prefix string) string {
	fields := make([]string, len(ps))
	for i, p := range ps {
		fields[i] = fmt.Sprintf("<%s%d> %s", prefix, i, escape(p.Name))
	}
	return strings.Join(fields, "|")
}

// properties formats the persisted scalar properties of n's state.
// Other kinds are summarized by their type name.
func properties(n *graph.Node, types *meta.Registry) []string {
	if n.Data == nil {
		return nil
	}
	obj, err := types.ObjectOf(n.Data)
	if err != nil {
		return nil
	}
	var lines []string
	for _, p := range obj.Type().Persisted() {
		v, err := obj.Get(p)
		if err != nil || !v.IsValid() {
			continue
		}
		text := v.TypeName()
		if v.Kind() == meta.KindScalar {
			if s, err := v.Type().Format(v.Interface()); err == nil {
				text = s
			}
		}
		lines = append(lines, p.Name()+": "+text)
	}
	return lines
}

var recordSpecial = strings.NewReplacer(
	`\`, `\\`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`,
)

func escape(s string) string { return recordSpecial.Replace(s) }

// quote wraps a record label in double quotes. Backslashes are left alone
// since they already carry record escapes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
