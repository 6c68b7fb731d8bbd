// Package commands implements the pennywise command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pennywise/internal/buildinfo"
	"pennywise/internal/cli"
	"pennywise/internal/config"
	"pennywise/internal/core"
	"pennywise/internal/ledger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "pennywise",
		Short:   "Personal income, expense and budget tracker",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newExportCommand(),
		newInsightsCommand(),
		newTokenCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pennywise", buildinfo.String())
		},
	}
}

// openApp wires the ledger for a one-shot read. Nothing is mutated, so no
// events are published.
func openApp(ctx context.Context) (*cli.App, error) {
	cfg, err := cli.LoadConfig((*config.Config).ValidateStorage)
	if err != nil {
		return nil, err
	}
	cfg.AMQPURL = ""
	return cli.NewApp(ctx, cfg, cli.NewLogger(cfg, os.Stderr))
}

// parseKind accepts the singular and plural spellings used by the API.
func parseKind(s string) (core.Kind, error) {
	switch s {
	case "expense", "expenses":
		return core.KindExpense, nil
	case "income", "incomes":
		return core.KindIncome, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrInvalidKind, s)
}

// monthOf returns the month's transactions of one kind.
func monthOf(st ledger.State, kind core.Kind, month string) []core.Transaction {
	list := st.Expenses
	if kind == core.KindIncome {
		list = st.Income
	}
	return core.FilterByMonth(list, month)
}
