package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// source names where a command reads its document from: a file argument
// or a --key in the document store.
type source struct {
	path string
	key  string
}

func (s *source) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.key, "key", "", "read the document from the store instead of a file")
}

// resolve takes the file argument, if any, and checks that exactly one of
// file and key is set.
func (s *source) resolve(args []string) error {
	if len(args) > 0 {
		s.path = args[0]
	}
	switch {
	case s.path == "" && s.key == "":
		return errs.New(errs.ErrCodeInvalidInput, "need a FILE argument or --key")
	case s.path != "" && s.key != "":
		return errs.New(errs.ErrCodeInvalidInput, "FILE and --key are mutually exclusive")
	}
	return nil
}

func (s *source) String() string {
	if s.key != "" {
		return "key " + s.key
	}
	return s.path
}

// read returns the document bytes.
func (c *CLI) read(ctx context.Context, s *source) ([]byte, error) {
	if s.key == "" {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		return data, nil
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Get(ctx, s.key)
}

// writeOutput writes data to path.
func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
