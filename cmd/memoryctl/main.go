// Command memoryctl is the operator surface for the memory engine: status,
// search, add, prune, backfill, and reindex against the same SQLite store
// a host process uses, so an operator can inspect or repair memory state
// without stopping the host.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nanobot-ai/memorycore/pkg/memory"
)

var (
	configPath string
	verbose    bool
)

// exitCoder lets a RunE return a specific exit code (2 for usage errors)
// instead of the default 1 runtime-error code.
type exitCoder struct {
	code int
	err  error
}

func (e *exitCoder) Error() string { return e.err.Error() }
func (e *exitCoder) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitCoder{code: 2, err: fmt.Errorf(format, args...)}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func loadConfig() (memory.Config, error) {
	if configPath == "" {
		return memory.DefaultConfig(), nil
	}
	return memory.Load(configPath)
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "memoryctl",
		Short:         "Inspect and repair the memory engine's SQLite store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to memory config.json5 (defaults to built-in defaults)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitCoder{code: 2, err: err}
	})

	root.AddCommand(
		statusCmd(),
		searchCmd(),
		addCmd(),
		pruneCmd(),
		backfillCmd(),
		reindexCmd(),
	)
	return root
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		code := 1
		var ec *exitCoder
		if errors.As(err, &ec) {
			code = ec.code
		}
		fmt.Fprintln(os.Stderr, "memoryctl: "+err.Error())
		os.Exit(code)
	}
}
