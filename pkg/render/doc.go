// Package render draws node graphs as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] converts a [graph.Graph] into DOT source where every node is a
// record shape with one field per port, and edges run between port
// anchors. Edges that were only recorded during a preview load are drawn
// dashed; live links are solid. Annotations become note shapes.
//
//	dot := render.ToDOT(g, render.Options{Detailed: true, Types: reg})
//	svg, err := render.RenderSVG(dot)
//
// # Options
//
//   - Detailed: list the node's persisted scalar properties under its name
//   - Types: the registry used to read properties; required for Detailed
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, so no Graphviz installation is required.
package render
