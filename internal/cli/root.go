// Package cli implements the claimrisk command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibbank/claimrisk/internal/infrastructure/config"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootOptions struct {
	configPath string
	logLevel   string
	version    string
}

// loadConfig loads and validates the configuration named by --config,
// applying --log-level on top.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewRootCommand builds the claimrisk command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	opts := &rootOptions{version: info.Version}

	root := &cobra.Command{
		Use:   "claimrisk",
		Short: "Insurance claim fraud scoring",
		Long: `claimrisk scores insurance claims for fraud risk. Each claim runs through
thirteen rule checks, a fraud probability model and a decision policy that
approves, rejects or routes it to manual review.

Configuration hierarchy (highest to lowest priority):
  1. Environment variables (CLAIMRISK_*, also read from .env)
  2. Config file (--config)
  3. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCommand(opts),
		newScoreCommand(opts),
		newConfigCommand(opts),
		newMigrateCommand(opts),
		newTokenCommand(opts),
		newCertsCommand(),
		newVersionCommand(info),
	)
	return root
}

// Execute runs the command tree under ctx.
func Execute(ctx context.Context, info BuildInfo) error {
	return NewRootCommand(info).ExecuteContext(ctx)
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "claimrisk %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
		},
	}
}
