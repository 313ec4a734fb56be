package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
	"github.com/matzehuels/nodeflow/pkg/store"
)

// storeCommand creates the document store management command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage documents in the document store",
		Long: `Manage documents in the document store configured by [store] url in the
config file. Keys are scoped to [store] namespace when it is set.`,
	}

	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeRemoveCommand())

	return cmd
}

// withStore opens the store around fn with a spinner shown while it
// connects.
func (c *CLI) withStore(cmd *cobra.Command, fn func(store.Store) error) error {
	s := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Opening store...").start()
	st, err := c.openStore(cmd.Context())
	s.stop()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) storePutCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "put <key> <file>",
		Short: "Store a document under a key",
		Long: `Store a document under a key. Documents with structural problems are
rejected unless --force is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, path := args[0], args[1]
			if err := errs.ValidateKey(key); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			p := printer{cmd.OutOrStdout()}
			report, err := c.inspect(data)
			switch {
			case err != nil && !force:
				return err
			case err == nil && !report.OK() && !force:
				for _, problem := range report.Problems {
					p.failure("%s", problem)
				}
				return errs.New(errs.ErrCodeMalformed, "%s has %d structural problems", path, len(report.Problems))
			}

			return c.withStore(cmd, func(st store.Store) error {
				if err := st.Put(cmd.Context(), key, data); err != nil {
					return err
				}
				p.success("Stored %s", key)
				p.detail("%d bytes from %s", len(data), path)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "store documents with structural problems")

	return cmd
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print or save a stored document",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return c.completeKeys(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(st store.Store) error {
				data, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := writeOutput(output, data); err != nil {
					return err
				}
				p := printer{cmd.OutOrStdout()}
				p.success("Fetched %s", args[0])
				p.file(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the document to this file")

	return cmd
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored document keys",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(st store.Store) error {
				keys, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				p := printer{cmd.OutOrStdout()}
				if len(keys) == 0 {
					p.info("Store is empty")
					return nil
				}
				for _, k := range keys {
					p.line(k)
				}
				return nil
			})
		},
	}
}

func (c *CLI) storeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>...",
		Aliases: []string{"remove"},
		Short:   "Remove stored documents",
		Args:    cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(st store.Store) error {
				p := printer{cmd.OutOrStdout()}
				for _, key := range args {
					if err := st.Delete(cmd.Context(), key); err != nil {
						return err
					}
					p.success("Removed %s", key)
				}
				return nil
			})
		},
	}
}

// completeKeys offers stored keys that are not already on the command line.
// Completion skips the persistent pre-run, so the config is loaded here.
func (c *CLI) completeKeys(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer st.Close()
	keys, err := st.List(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []cobra.Completion
	for _, k := range keys {
		if strings.HasPrefix(k, toComplete) && !slices.Contains(args, k) {
			out = append(out, k)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
