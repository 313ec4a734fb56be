package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeflow/pkg/buildinfo"
)

// SetVersion sets the version information displayed by --version. Empty
// values keep the ones injected into pkg/buildinfo via ldflags.
func SetVersion(v, c, d string) {
	if v != "" {
		buildinfo.Version = v
	}
	if c != "" {
		buildinfo.Commit = c
	}
	if d != "" {
		buildinfo.Date = d
	}
}

// Execute runs the nodeflow CLI until ctx is cancelled or the command
// returns.
//
// Logging goes to stderr at the level from the config file, or at debug
// level with --verbose (-v), which wins over the config file.
func Execute(ctx context.Context) error {
	var verbose bool

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	loadConfig := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd, args); err != nil {
			return err
		}
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}
