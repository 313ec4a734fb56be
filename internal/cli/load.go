package cli

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	nfio "github.com/matzehuels/nodeflow/pkg/io"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/nodes"
	"github.com/matzehuels/nodeflow/pkg/progress"
)

func (c *CLI) loadCommand() *cobra.Command {
	var (
		src    source
		noTUI  bool
		record bool
	)

	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Load a document and evaluate its graph",
		Long: `Load a document with all edges connected, report what could not be
loaded, and evaluate the graph. Every Display node's value is printed.

With --record each Display node appends its value to its history and the
document is written back to where it was read from.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.resolve(args); err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			nc, err := c.newCodec()
			if err != nil {
				return err
			}
			data, err := c.read(ctx, &src)
			if err != nil {
				return err
			}
			doc, err := markup.Parse(data)
			if err != nil {
				return err
			}

			var res *nfio.Result
			load := func(rep progress.Reporter) error {
				var err error
				res, err = nc.Decode(doc, nfio.LoadOptions{Progress: rep, Connect: true})
				return err
			}

			watch := newStopwatch(logger)
			if out, ok := cmd.ErrOrStderr().(*os.File); ok && !noTUI && term.IsTerminal(int(out.Fd())) {
				err = runWithProgress(ctx, out, "Loading "+src.String(), load)
			} else {
				err = load(progress.NewLog(logger, "loading nodes"))
			}
			if res == nil {
				return err
			}
			loadErr := err
			watch.done("Loaded graph", "source", src.String())

			p := printer{cmd.OutOrStdout()}
			p.title(src.String())
			p.stats(res.Graph.NodeCount(), res.Graph.EdgeCount(), len(res.Graph.Annotations()))
			for _, d := range res.Diagnostics {
				if d.Fatal {
					p.failure("%s #%d: %s", d.Element, d.Index, d.Message)
				} else {
					p.warning("%s #%d dropped: %s", d.Element, d.Index, d.Message)
				}
			}

			values, err := nodes.Eval(res.Graph)
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", src.String(), err)
			}
			var rows [][]string
			for _, n := range res.Graph.Nodes() {
				d, ok := n.Data.(*nodes.Display)
				if !ok {
					continue
				}
				value := strconv.FormatFloat(values[n], 'f', max(d.Precision, 0), 64)
				if d.Unit != "" {
					value += " " + d.Unit
				}
				rows = append(rows, []string{n.Name, value})
				if record {
					d.History = append(d.History, d.Last)
				}
			}
			if len(rows) > 0 {
				p.table([]string{"Display", "Value"}, rows)
			}

			if loadErr != nil {
				return fmt.Errorf("load %s: %w", src.String(), loadErr)
			}
			if !record {
				return nil
			}

			var buf bytes.Buffer
			if err := nc.Write(&buf, res.Graph, c.Config.Indent); err != nil {
				return err
			}
			if src.key == "" {
				if err := writeOutput(src.path, buf.Bytes()); err != nil {
					return err
				}
			} else {
				st, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Put(ctx, src.key, buf.Bytes()); err != nil {
					return err
				}
			}
			p.success("Recorded %d display values", len(rows))
			return nil
		},
	}

	src.addFlags(cmd)
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "log progress instead of showing a progress bar")
	cmd.Flags().BoolVar(&record, "record", false, "append display values to their history and write the document back")

	return cmd
}
