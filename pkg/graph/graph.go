package graph

import (
	"errors"
	"slices"
)

var (
	// ErrNilNode is returned by [Graph.AddNode] when the node is nil.
	ErrNilNode = errors.New("node must not be nil")

	// ErrDuplicateNode is returned by [Graph.AddNode] when the node is
	// already part of the graph.
	ErrDuplicateNode = errors.New("node already in graph")

	// ErrForeignPort is returned by [Graph.Connect] and [Graph.AddEdge] when
	// a port is nil or belongs to a node that is not part of the graph.
	ErrForeignPort = errors.New("port does not belong to a node of this graph")

	// ErrPortDirection is returned when an edge does not run from an output
	// port to an input port.
	ErrPortDirection = errors.New("edges must run from an output to an input")

	// ErrTransportMismatch is returned when the two ports of an edge carry
	// different transport types.
	ErrTransportMismatch = errors.New("transport types of the ports differ")
)

// Direction tells inputs from outputs.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Point is a position on the canvas.
type Point struct {
	X, Y float64
}

// Port is one input or output slot of a node.
type Port struct {
	Name      string
	Transport string // transport type name; both ends of an edge must agree

	node      *Node
	direction Direction
	index     int
	links     []*Edge
}

// Node returns the node owning the port.
func (p *Port) Node() *Node { return p.node }

// Direction reports whether p is an input or an output.
func (p *Port) Direction() Direction { return p.direction }

// Index returns the position of p among its node's inputs or outputs.
func (p *Port) Index() int { return p.index }

// Connected reports whether at least one live edge uses p.
func (p *Port) Connected() bool { return len(p.links) > 0 }

// Links returns the live edges using p.
func (p *Port) Links() []*Edge { return slices.Clone(p.links) }

// Peers returns the ports at the other end of p's live edges.
func (p *Port) Peers() []*Port {
	peers := make([]*Port, 0, len(p.links))
	for _, e := range p.links {
		if e.From == p {
			peers = append(peers, e.To)
		} else {
			peers = append(peers, e.From)
		}
	}
	return peers
}

// Node is one item of the graph.
//
// Data holds the node's state: a pointer to a struct whose persisted
// properties are saved with the node. Ephemeral nodes, such as an edge
// being dragged, are skipped when saving.
type Node struct {
	Type      string
	Name      string
	Pos       Point
	Data      any
	Ephemeral bool

	inputs  []*Port
	outputs []*Port
}

// NewNode creates a node of the given type with data as its state.
func NewNode(typeName string, data any) *Node {
	return &Node{Type: typeName, Data: data}
}

// AddInput appends an input port.
func (n *Node) AddInput(name, transport string) *Port {
	p := &Port{Name: name, Transport: transport, node: n, direction: Input, index: len(n.inputs)}
	n.inputs = append(n.inputs, p)
	return p
}

// AddOutput appends an output port.
func (n *Node) AddOutput(name, transport string) *Port {
	p := &Port{Name: name, Transport: transport, node: n, direction: Output, index: len(n.outputs)}
	n.outputs = append(n.outputs, p)
	return p
}

// Inputs returns the input ports in index order.
func (n *Node) Inputs() []*Port { return n.inputs }

// Outputs returns the output ports in index order.
func (n *Node) Outputs() []*Port { return n.outputs }

// Input returns the input port at index i.
func (n *Node) Input(i int) (*Port, bool) {
	if i < 0 || i >= len(n.inputs) {
		return nil, false
	}
	return n.inputs[i], true
}

// Output returns the output port at index i.
func (n *Node) Output(i int) (*Port, bool) {
	if i < 0 || i >= len(n.outputs) {
		return nil, false
	}
	return n.outputs[i], true
}

// Routing is a manual routing hint for an edge.
type Routing struct {
	Mode       int
	Length     float64
	Horizontal bool
}

// Edge connects an output port to an input port.
type Edge struct {
	From    *Port
	To      *Port
	Routing *Routing // nil unless the route was adjusted by hand

	linked bool
}

// Linked reports whether the edge carries data between its ports.
func (e *Edge) Linked() bool { return e.linked }

// Annotation is a free-standing note on the canvas.
type Annotation struct {
	Pos     Point
	Content string
	Width   float64
	Color   string
}

// Graph is a set of nodes, edges and annotations.
//
// The zero value is not usable - use New.
type Graph struct {
	nodes       []*Node
	members     map[*Node]bool
	edges       []*Edge
	annotations []*Annotation
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{members: make(map[*Node]bool)}
}

// AddNode adds n to the graph.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if g.members[n] {
		return ErrDuplicateNode
	}
	g.members[n] = true
	g.nodes = append(g.nodes, n)
	return nil
}

// RemoveNode removes n and every edge touching it.
// Removing a node that is not in the graph is a no-op.
func (g *Graph) RemoveNode(n *Node) {
	if !g.members[n] {
		return
	}
	for _, e := range slices.Clone(g.edges) {
		if e.From.node == n || e.To.node == n {
			g.RemoveEdge(e)
		}
	}
	delete(g.members, n)
	g.nodes = slices.DeleteFunc(g.nodes, func(m *Node) bool { return m == n })
}

// Contains reports whether n is part of the graph.
func (g *Graph) Contains(n *Node) bool { return g.members[n] }

// Connect creates a live edge from an output port to an input port.
// Both ports record the link.
func (g *Graph) Connect(from, to *Port) (*Edge, error) {
	e, err := g.newEdge(from, to)
	if err != nil {
		return nil, err
	}
	e.linked = true
	from.links = append(from.links, e)
	to.links = append(to.links, e)
	g.edges = append(g.edges, e)
	return e, nil
}

// AddEdge records a visual edge without linking its ports.
func (g *Graph) AddEdge(from, to *Port) (*Edge, error) {
	e, err := g.newEdge(from, to)
	if err != nil {
		return nil, err
	}
	g.edges = append(g.edges, e)
	return e, nil
}

func (g *Graph) newEdge(from, to *Port) (*Edge, error) {
	if from == nil || to == nil || !g.members[from.node] || !g.members[to.node] {
		return nil, ErrForeignPort
	}
	if from.direction != Output || to.direction != Input {
		return nil, ErrPortDirection
	}
	if from.Transport != to.Transport {
		return nil, ErrTransportMismatch
	}
	return &Edge{From: from, To: to}, nil
}

// RemoveEdge removes e and unlinks its ports.
func (g *Graph) RemoveEdge(e *Edge) {
	g.edges = slices.DeleteFunc(g.edges, func(x *Edge) bool { return x == e })
	if e.linked {
		unlink := func(x *Edge) bool { return x == e }
		e.From.links = slices.DeleteFunc(e.From.links, unlink)
		e.To.links = slices.DeleteFunc(e.To.links, unlink)
		e.linked = false
	}
}

// AddAnnotation adds a note to the graph.
func (g *Graph) AddAnnotation(a *Annotation) {
	g.annotations = append(g.annotations, a)
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge { return g.edges }

// Annotations returns the annotations in insertion order.
func (g *Graph) Annotations() []*Annotation { return g.annotations }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }
