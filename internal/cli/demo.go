package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/graph"
	"github.com/matzehuels/nodeflow/pkg/nodes"
)

// demoCommand creates the demo command, which writes a sample document.
func (c *CLI) demoCommand() *cobra.Command {
	var (
		output string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write a sample document",
		Long: `Write a sample document built from the node library.

The graph computes (2 + 3) * 10 clamped to [0, 40] and shows the result in a
Display node. Use --key to put it into the document store instead of a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nc, err := c.newCodec()
			if err != nil {
				return err
			}
			g, err := demoGraph()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := nc.Write(&buf, g, c.Config.Indent); err != nil {
				return fmt.Errorf("encode demo: %w", err)
			}

			p := printer{cmd.OutOrStdout()}
			if key != "" {
				st, err := c.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Put(cmd.Context(), key, buf.Bytes()); err != nil {
					return err
				}
				p.success("Stored demo document as %s", key)
			} else {
				if err := writeOutput(output, buf.Bytes()); err != nil {
					return err
				}
				p.success("Wrote demo document")
				p.file(output)
			}
			p.stats(g.NodeCount(), g.EdgeCount(), len(g.Annotations()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "demo.xml", "output file")
	cmd.Flags().StringVar(&key, "key", "", "store the document under this key instead of writing a file")

	return cmd
}

// demoGraph builds (two + three) * 10, clamped to [0, 40], into a display.
func demoGraph() (*graph.Graph, error) {
	g := graph.New()

	two := nodes.NewConstant(2)
	two.Name, two.Pos = "two", graph.Point{X: 40, Y: 40}
	two.Data.(*nodes.Constant).Style = nodes.Style{Color: "#5fafd7", Width: 120}

	three := nodes.NewConstant(3)
	three.Name, three.Pos = "three", graph.Point{X: 40, Y: 160}

	sum := nodes.NewAdd()
	sum.Name, sum.Pos = "sum", graph.Point{X: 220, Y: 100}

	scale := nodes.NewMultiply()
	scale.Name, scale.Pos = "scale", graph.Point{X: 400, Y: 100}
	m := scale.Data.(*nodes.Multiply)
	m.Factor = 10
	m.Clamp = nodes.Range{Min: 0, Max: 40}

	one := nodes.NewConstant(1)
	one.Name, one.Pos = "one", graph.Point{X: 220, Y: 220}

	out := nodes.NewDisplay()
	out.Name, out.Pos = "result", graph.Point{X: 580, Y: 100}
	d := out.Data.(*nodes.Display)
	d.Unit = "V"
	d.Tags = []string{"demo", "output"}
	d.Extras = map[string]any{"threshold": 30.0, "label": "clamped"}

	for _, n := range []*graph.Node{two, three, sum, scale, one, out} {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	for _, link := range [][2]*graph.Port{
		{two.Outputs()[0], sum.Inputs()[0]},
		{three.Outputs()[0], sum.Inputs()[1]},
		{sum.Outputs()[0], scale.Inputs()[0]},
		{one.Outputs()[0], scale.Inputs()[1]},
		{scale.Outputs()[0], out.Inputs()[0]},
	} {
		if _, err := g.Connect(link[0], link[1]); err != nil {
			return nil, err
		}
	}

	g.AddAnnotation(&graph.Annotation{
		Pos:     graph.Point{X: 40, Y: 0},
		Content: "(2 + 3) * 10, clamped to 40",
		Width:   240,
		Color:   "#ffd75f",
	})
	return g, nil
}
