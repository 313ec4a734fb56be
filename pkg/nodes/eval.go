package nodes

import (
	"errors"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/graph"
)

// ErrCycle is returned by Eval when live edges form a cycle.
var ErrCycle = errors.New("graph contains a cycle")

// Eval computes the output value of every node of g by following live
// edges. Unconnected inputs count as zero for Add and one for Multiply.
// Display nodes take the sum of their inputs.
//
// Edges that were only recorded, not connected, carry no values.
func Eval(g *graph.Graph) (map[*graph.Node]float64, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*graph.Node]int)
	out := make(map[*graph.Node]float64, g.NodeCount())

	var visit func(n *graph.Node) error
	visit = func(n *graph.Node) error {
		switch color[n] {
		case gray:
			return ErrCycle
		case black:
			return nil
		}
		color[n] = gray

		var inputs [][]float64
		for _, in := range n.Inputs() {
			var vals []float64
			for _, p := range in.Peers() {
				if err := visit(p.Node()); err != nil {
					return err
				}
				vals = append(vals, out[p.Node()])
			}
			inputs = append(inputs, vals)
		}

		v, err := compute(n, inputs)
		if err != nil {
			return err
		}
		out[n] = v
		color[n] = black
		return nil
	}

	for _, n := range g.Nodes() {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func compute(n *graph.Node, inputs [][]float64) (float64, error) {
	switch d := n.Data.(type) {
	case *Constant:
		return d.Value, nil
	case *Add:
		sum := d.Bias
		for _, vals := range inputs {
			for _, v := range vals {
				sum += v
			}
		}
		return sum, nil
	case *Multiply:
		product := d.Factor
		for _, vals := range inputs {
			if len(vals) == 0 {
				continue
			}
			s := 0.0
			for _, v := range vals {
				s += v
			}
			product *= s
		}
		return d.Clamp.Clamp(product), nil
	case *Display:
		sum := 0.0
		for _, vals := range inputs {
			for _, v := range vals {
				sum += v
			}
		}
		d.Last = sum
		return sum, nil
	default:
		return 0, errs.New(errs.ErrCodeUnsupported, "cannot evaluate node type %s", n.Type)
	}
}
