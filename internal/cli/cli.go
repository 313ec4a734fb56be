package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
	"github.com/matzehuels/nodeflow/pkg/codec"
	"github.com/matzehuels/nodeflow/pkg/graph"
	nfio "github.com/matzehuels/nodeflow/pkg/io"
	"github.com/matzehuels/nodeflow/pkg/meta"
	"github.com/matzehuels/nodeflow/pkg/nodes"
	"github.com/matzehuels/nodeflow/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nodeflow"

	// configFile is the config file name below the config directory.
	configFile = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Its persistent pre-run loads the config file and applies its log level.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Nodeflow saves and loads node graphs",
		Long:         `Nodeflow persists node graphs and their typed properties as markup documents, inspects and previews them, and keeps them in a document store.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/nodeflow/config.toml)")

	root.AddCommand(c.demoCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine and Store Factories
// =============================================================================

// newCodec builds a graph codec with the built-in node library installed.
func (c *CLI) newCodec() (*nfio.Codec, error) {
	bin, err := codec.BinaryByName(c.Config.BinaryCodec)
	if err != nil {
		return nil, err
	}
	reg := meta.NewRegistry()
	table := codec.NewTable()
	catalog := graph.NewCatalog()
	if err := nodes.Install(reg, table, catalog); err != nil {
		return nil, err
	}
	values := codec.New(reg,
		codec.WithTable(table),
		codec.WithBinary(bin),
		codec.WithLogger(c.Logger),
	)
	return nfio.New(values, catalog, nfio.WithLogger(c.Logger)), nil
}

// openStore opens the configured document store, scoped to the configured
// namespace.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	url := c.Config.Store.URL
	if url == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		url = "file://" + filepath.Join(dir, "documents")
	}
	c.Logger.Debug("opening store", "url", url)
	s, err := store.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return store.NewScoped(s, c.Config.Store.Namespace), nil
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/nodeflow/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/nodeflow/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
