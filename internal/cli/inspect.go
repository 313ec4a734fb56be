package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	nfio "github.com/matzehuels/nodeflow/pkg/io"
	"github.com/matzehuels/nodeflow/pkg/markup"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// inspectReport is what inspect prints.
type inspectReport struct {
	Source       string `json:"source" yaml:"source"`
	nfio.Summary `yaml:",inline"`
	Diagnostics  []nfio.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func (c *CLI) inspectCommand() *cobra.Command {
	var (
		src    source
		format string
	)

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Report the structure of a document",
		Long: `Report node, edge and annotation counts of a document, its structural
problems, and the diagnostics a load would produce. Nothing is connected.

Exits with an error if the document has structural problems.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.resolve(args); err != nil {
				return err
			}
			if !slices.Contains([]string{formatTable, formatJSON, formatYAML}, format) {
				return errs.New(errs.ErrCodeInvalidInput, "unknown format %q", format)
			}

			data, err := c.read(cmd.Context(), &src)
			if err != nil {
				return err
			}
			report, err := c.inspect(data)
			if err != nil {
				return err
			}
			report.Source = src.String()

			if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if !report.OK() {
				return errs.New(errs.ErrCodeMalformed, "%s has %d structural problems", src.String(), len(report.Problems))
			}
			return nil
		},
	}

	src.addFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or yaml")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]cobra.Completion{formatTable, formatJSON, formatYAML}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// inspect summarizes data and, when it is sound, collects the diagnostics
// of a preview load.
func (c *CLI) inspect(data []byte) (*inspectReport, error) {
	doc, err := markup.Parse(data)
	if err != nil {
		return nil, err
	}
	container, err := nfio.GraphContainer(doc)
	if err != nil {
		return nil, err
	}
	report := &inspectReport{Summary: nfio.Inspect(container)}

	nc, err := c.newCodec()
	if err != nil {
		return nil, err
	}
	// The load error repeats fatal diagnostics, which are already listed.
	res, _ := nc.Load(container, nfio.LoadOptions{})
	report.Diagnostics = res.Diagnostics
	return report, nil
}

func writeReport(w io.Writer, format string, r *inspectReport) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}

	p := printer{w}
	p.title(r.Source)
	p.stats(r.Nodes, r.Edges, r.Annotations)

	if len(r.NodeTypes) > 0 {
		names := make([]string, 0, len(r.NodeTypes))
		for name := range r.NodeTypes {
			names = append(names, name)
		}
		slices.Sort(names)
		rows := make([][]string, len(names))
		for i, name := range names {
			rows[i] = []string{name, strconv.Itoa(r.NodeTypes[name])}
		}
		p.table([]string{"Type", "Nodes"}, rows)
	}

	if r.DanglingEdges > 0 {
		p.warning("%d edges reference unknown nodes", r.DanglingEdges)
	}
	for _, problem := range r.Problems {
		p.failure("%s", problem)
	}
	if len(r.Diagnostics) > 0 {
		rows := make([][]string, len(r.Diagnostics))
		for i, d := range r.Diagnostics {
			severity := "dropped"
			if d.Fatal {
				severity = "fatal"
			}
			rows[i] = []string{fmt.Sprintf("%s #%d", d.Element, d.Index), string(d.Code), severity, d.Message}
		}
		p.table([]string{"Element", "Code", "Severity", "Message"}, rows)
	}
	if r.OK() && len(r.Diagnostics) == 0 {
		p.success("No problems found")
	}
	return nil
}
