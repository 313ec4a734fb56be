// Package graph provides the in-memory model of a node editor graph.
//
// A [Graph] holds nodes with typed input and output ports, the edges that
// connect them and free-standing annotations. It is the shape the document
// codec in pkg/io saves and reconstructs.
//
// # Core Types
//
//   - [Node]: a typed item with a position, a display name, ordered ports
//     and a Data entity whose persisted properties are saved with the node
//   - [Port]: an input or output slot carrying one transport type
//   - [Edge]: a connection from an output port to an input port, with an
//     optional manual [Routing] hint
//   - [Annotation]: a free-standing note with content, width and color
//
// # Live and Preview Edges
//
// [Graph.Connect] creates a live edge: both ports record the link and
// report themselves connected, so data can propagate. [Graph.AddEdge]
// creates the same visual edge without linking the ports, which is what a
// read-only preview needs.
//
//	g := graph.New()
//	src := graph.NewNode("Constant", &nodes.Constant{Value: 2})
//	out := src.AddOutput("value", "float64")
//	dst := graph.NewNode("Display", &nodes.Display{})
//	in := dst.AddInput("value", "float64")
//	g.AddNode(src)
//	g.AddNode(dst)
//	edge, err := g.Connect(out, in)
//
// # Factories
//
// Loading creates nodes by type name through a [Factory]. [Catalog] is the
// standard implementation: a table of builder functions keyed by type name.
//
// # Concurrency
//
// Graph is not safe for concurrent use without external synchronization.
// Catalog is safe for concurrent use.
package graph
