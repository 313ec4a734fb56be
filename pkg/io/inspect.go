package io

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/matzehuels/nodeflow/pkg/markup"
)

// Summary describes the contents of a graph container.
type Summary struct {
	Nodes         int            `json:"nodes" yaml:"nodes"`
	NodeTypes     map[string]int `json:"node_types" yaml:"node_types"`
	Edges         int            `json:"edges" yaml:"edges"`
	Annotations   int            `json:"annotations" yaml:"annotations"`
	DanglingEdges int            `json:"dangling_edges" yaml:"dangling_edges"`
	Problems      []string       `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// OK reports whether the container is structurally sound. Dangling edges
// do not count as problems since loading drops them.
func (s Summary) OK() bool { return len(s.Problems) == 0 }

// Inspect scans container without creating nodes or decoding values.
func Inspect(container *etree.Element) Summary {
	s := Summary{NodeTypes: make(map[string]int)}
	ids := make(map[int]bool)

	problem := func(i int, format string, args ...any) {
		s.Problems = append(s.Problems, fmt.Sprintf("element %d: ", i)+fmt.Sprintf(format, args...))
	}

	children := container.ChildElements()
	for i, el := range children {
		switch el.Tag {
		case TagNode:
			s.Nodes++
			typeName, ok := markup.Attr(el, markup.AttrType)
			if !ok || typeName == "" {
				problem(i, "node has no type")
			} else {
				s.NodeTypes[typeName]++
			}
			id, err := markup.IntAttr(el, AttrID)
			switch {
			case err != nil:
				problem(i, "node has no valid id")
			case ids[id]:
				problem(i, "duplicate node id %d", id)
			default:
				ids[id] = true
			}
		case TagAnnotation:
			s.Annotations++
		}
	}

	// Edges may precede the nodes they reference, so check them once all
	// ids are known.
	for _, el := range children {
		if el.Tag != TagEdge {
			continue
		}
		s.Edges++
		from, errFrom := markup.IntAttr(el, AttrFromItem)
		to, errTo := markup.IntAttr(el, AttrToItem)
		if errFrom != nil || errTo != nil || !ids[from] || !ids[to] {
			s.DanglingEdges++
		}
	}
	return s
}
