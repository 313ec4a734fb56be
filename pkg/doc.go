// Package pkg provides the core libraries for nodeflow, a persistence layer
// for node editor graphs.
//
// # Overview
//
// Nodeflow saves a graph of typed nodes, ports, edges and annotations to a
// markup document and loads it back into a live graph. Node state is plain
// Go structs; a reflective type registry decides how each field is written.
// The pkg directory is organized into three areas:
//
//  1. Type system and value codecs ([meta], [codec], [markup])
//  2. Graph model and document codec ([graph], [io], [nodes])
//  3. Infrastructure ([store], [server], [render], [progress], [observability])
//
// # Architecture
//
// The typical data flow through nodeflow:
//
//	Go node state (structs)
//	         ↓
//	    [meta] package (types, kinds, properties)
//	         ↓
//	    [codec] package (values to markup elements)
//	         ↓
//	    [io] package (graph to document and back)
//	         ↓
//	    XML document on disk, in a [store] or served by [server]
//
// # Quick Start
//
// Build a graph and write it to disk:
//
//	import (
//	    "github.com/matzehuels/nodeflow/pkg/codec"
//	    "github.com/matzehuels/nodeflow/pkg/graph"
//	    nfio "github.com/matzehuels/nodeflow/pkg/io"
//	    "github.com/matzehuels/nodeflow/pkg/meta"
//	    "github.com/matzehuels/nodeflow/pkg/nodes"
//	)
//
//	reg, table, catalog := meta.NewRegistry(), codec.NewTable(), graph.NewCatalog()
//	_ = nodes.Install(reg, table, catalog)
//	nc := nfio.New(codec.New(reg, codec.WithTable(table)), catalog)
//
//	g := graph.New()
//	a, b, sum := nodes.NewConstant(2), nodes.NewConstant(3), nodes.NewAdd()
//	for _, n := range []*graph.Node{a, b, sum} {
//	    _ = g.AddNode(n)
//	}
//	_, _ = g.Connect(a.Outputs()[0], sum.Inputs()[0])
//	_, _ = g.Connect(b.Outputs()[0], sum.Inputs()[1])
//	_ = nc.WriteFile("flow.xml", g, 2)
//
// Load it back:
//
//	res, err := nc.ReadFile("flow.xml", nfio.LoadOptions{Connect: true})
//
// # Main Packages
//
// ## Type System
//
// [meta] - Runtime type registry. Every registered type has exactly one kind
// (scalar, list, map, object or opaque); object types expose their tagged
// fields as properties.
//
// [markup] - Thin helpers over etree elements: reserved attribute names and
// typed attribute access.
//
// [codec] - Encodes values and object properties as elements. Scalars go to
// text, binary payloads through a pluggable msgpack or JSON codec, and custom
// types through a dispatch [codec.Table].
//
// ## Graphs
//
// [graph] - In-memory node graph with ports, edges, annotations and a
// [graph.Catalog] of node factories.
//
// [io] - Saves a graph into a container element and loads it back, reporting
// dropped items as diagnostics instead of failing the whole document.
//
// [nodes] - A small arithmetic node library (Constant, Add, Multiply,
// Display) and an evaluator, used by the CLI and tests.
//
// ## Infrastructure
//
// [store] - Document persistence behind one interface: file, memory, SQLite,
// Redis, MongoDB and a remote HTTP store, selected by URL.
//
// [server] - HTTP API over a store using chi.
//
// [render] - Graphviz DOT and SVG previews of a graph.
//
// [progress] - Reporters for long-running loads.
//
// [observability] - Optional hooks for store and codec instrumentation.
//
// [errors] - Structured error codes shared by every package.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/io/...                 # Specific package
//	go test -run WireFormat ./pkg/codec  # Golden wire-format files
//	go test ./pkg/codec -update          # Regenerate golden files
package pkg
