// Package cli implements the nodeflow command-line interface.
//
// The commands create sample documents, inspect and load them, render
// previews, move documents in and out of a document store and serve that
// store over HTTP. The CLI is built using cobra and logs through the
// charmbracelet/log library.
//
// # Commands
//
//   - demo: Write a sample document built from the node library
//   - inspect: Report structure and load diagnostics of a document
//   - load: Load a document with a progress view and evaluate it
//   - preview: Render a document as DOT or SVG
//   - store: Put, get, list and remove stored documents
//   - serve: Serve the document store over HTTP
//
// # Configuration
//
// Settings are read from $XDG_CONFIG_HOME/nodeflow/config.toml, or the file
// given with --config. See [Config] for the keys.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stopwatch logs completion of an operation with its elapsed duration.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func newStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Loaded 5 nodes (12ms)"
func (s *stopwatch) done(msg string, keyvals ...any) {
	s.logger.Info(msg, append(keyvals, "took", time.Since(s.start).Round(time.Millisecond))...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if
// none is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if ctx == nil {
		return log.Default()
	}
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
