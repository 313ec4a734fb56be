package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	nfio "github.com/matzehuels/nodeflow/pkg/io"
	"github.com/matzehuels/nodeflow/pkg/markup"
	"github.com/matzehuels/nodeflow/pkg/render"
)

func (c *CLI) previewCommand() *cobra.Command {
	var (
		src      source
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Render a document as a diagram",
		Long: `Render the graph of a document without connecting it. Edges that
would not connect are left out; edges that were only recorded are dashed.

The output format follows the extension of --output: .dot or .svg. Without
--output the DOT source is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.resolve(args); err != nil {
				return err
			}
			ext := strings.ToLower(filepath.Ext(output))
			if output != "" && ext != ".dot" && ext != ".svg" {
				return errs.New(errs.ErrCodeUnsupported, "cannot render %q: use .dot or .svg", output)
			}

			nc, err := c.newCodec()
			if err != nil {
				return err
			}
			data, err := c.read(cmd.Context(), &src)
			if err != nil {
				return err
			}
			doc, err := markup.Parse(data)
			if err != nil {
				return err
			}
			res, err := nc.Decode(doc, nfio.LoadOptions{})
			if err != nil {
				loggerFromContext(cmd.Context()).Warn("preview is incomplete", "err", err)
			}

			dot := render.ToDOT(res.Graph, render.Options{Detailed: detailed, Types: nc.Values().Types()})
			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), dot)
				return err
			}

			out := []byte(dot)
			if ext == ".svg" {
				s := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Rendering SVG...").start()
				out, err = render.RenderSVG(dot)
				s.stop()
				if err != nil {
					return err
				}
			}
			if err := writeOutput(output, out); err != nil {
				return err
			}

			p := printer{cmd.OutOrStdout()}
			p.success("Rendered preview")
			p.file(output)
			return nil
		},
	}

	src.addFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.dot or .svg)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show node properties")

	return cmd
}
