// Package cli implements the scroller command-line interface.
//
// # Commands
//
//   - simulate: run a Lua scenario against the simulated engine
//   - replay: print a recorded trace
//   - demo: interactive terminal surface
//   - config: print the effective configuration
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Otherwise
// the level comes from the configuration. The logger and the loaded
// configuration travel in the command context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dshills/scroller/internal/config"
	"github.com/dshills/scroller/internal/logging"
	"github.com/dshills/scroller/internal/scroller"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// SetVersion sets the version information displayed by --version.
// It is called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the scroller CLI.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "scroller",
		Short:        "Scroller coordinates scroll and zoom changes on a simulated surface",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applied := cfg.ApplyEnv(os.LookupEnv)

			level := logging.ParseLevel(cfg.Log.Level)
			if verbose {
				level = log.DebugLevel
			}
			logger := logging.New(stderr, level)
			if len(applied) > 0 {
				logger.Debug("environment overrides", "vars", applied)
			}

			ctx := logging.WithContext(cmd.Context(), logger)
			ctx = withConfig(ctx, cfg, configPath)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate(fmt.Sprintf("scroller %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (.toml, .yaml)")

	root.AddCommand(newSimulateCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newDemoCmd())
	root.AddCommand(newConfigCmd())

	return root
}

type ctxKey int

const configKey ctxKey = 0

type loaded struct {
	cfg  *config.Config
	path string
}

func withConfig(ctx context.Context, cfg *config.Config, path string) context.Context {
	return context.WithValue(ctx, configKey, loaded{cfg: cfg, path: path})
}

// configFromContext returns the loaded configuration and its path, or the
// defaults when none is attached.
func configFromContext(ctx context.Context) (*config.Config, string) {
	if l, ok := ctx.Value(configKey).(loaded); ok {
		return l.cfg, l.path
	}
	return config.Default(), ""
}

// scrollerOptions builds the scroller options shared by every command.
func scrollerOptions(ctx context.Context, cfg *config.Config) ([]scroller.Option, error) {
	shim, err := cfg.Shim()
	if err != nil {
		return nil, err
	}
	return []scroller.Option{
		scroller.WithLogger(logging.FromContext(ctx)),
		scroller.WithPolicy(cfg.Policy()),
		scroller.WithShim(shim),
		scroller.WithContext(ctx),
	}, nil
}
