package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pgpkg "github.com/bibbank/claimrisk/pkg/postgres"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				if cfg.Database.URL == "" {
					return errNoDatabase
				}
				if err := pgpkg.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
					return err
				}
				return printVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
			},
		},
		newMigrateDownCommand(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				if cfg.Database.URL == "" {
					return errNoDatabase
				}
				return printVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
			},
		},
	)

	return cmd
}

func newMigrateDownCommand(opts *rootOptions) *cobra.Command {
	var (
		steps int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case all:
				steps = 0
			case steps <= 0:
				return fmt.Errorf("--steps must be positive")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errNoDatabase
			}
			if err := pgpkg.RunMigrationsDown(cfg.Database.URL, cfg.Database.MigrationsPath, steps); err != nil {
				return err
			}
			return printVersion(cmd, cfg.Database.URL, cfg.Database.MigrationsPath)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

func printVersion(cmd *cobra.Command, dsn, dir string) error {
	version, dirty, err := pgpkg.MigrationVersion(dsn, dir)
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "schema version: none")
		return nil
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d (%s)\n", version, state)
	return nil
}
