package cli

import (
	"cmp"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		maxBody int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document store over HTTP",
		Long: `Serve the document store over HTTP until interrupted.

Routes:
  GET    /documents                list keys
  GET    /documents/{key}          fetch a document
  PUT    /documents/{key}          store a document after inspecting it
  DELETE /documents/{key}          remove a document
  GET    /documents/{key}/summary  structure and load diagnostics
  GET    /healthz                  liveness and version`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			nc, err := c.newCodec()
			if err != nil {
				return err
			}
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(st,
				server.WithLogger(c.Logger),
				server.WithCodec(nc),
				server.WithMaxBody(maxBody),
			)

			p := printer{cmd.OutOrStdout()}
			p.title("Serving documents")
			p.keyValue("Address", addr)
			p.keyValue("Namespace", cmp.Or(c.Config.Store.Namespace, "(none)"))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, \":8080\")")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBody, "upload size limit in bytes")

	return cmd
}
