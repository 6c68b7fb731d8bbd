package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pennywise/internal/cli"
	"pennywise/internal/config"
	"pennywise/internal/storage"
)

var errNoSchema = errors.New("the memory backend has no schema to migrate")

func newMigrateCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the SQL backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadConfig((*config.Config).ValidateStorage)
			if err != nil {
				return err
			}
			return runMigrate(cmd.OutOrStdout(), cfg, status)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "only print the applied schema version")

	return cmd
}

func runMigrate(out io.Writer, cfg *config.Config, statusOnly bool) error {
	if cfg.DataBackend == config.BackendMemory {
		return errNoSchema
	}
	dialect := storage.Dialect(cfg.DataBackend)
	dsn := cfg.DSN()

	if !statusOnly {
		if err := storage.RunMigrations(dialect, dsn); err != nil {
			return err
		}
	}

	version, dirty, err := storage.MigrationVersion(dialect, dsn)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(out, "%s schema at version %d (%s)\n", dialect, version, state)
	return nil
}
