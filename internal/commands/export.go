package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pennywise/internal/core"
	"pennywise/internal/export"
	"pennywise/internal/ledger"
)

type exportOptions struct {
	userID string
	kind   string
	month  string
	format string
	output string
}

func newExportCommand() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one month of expenses or income as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "", "user whose ledger to export (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&opts.kind, "type", "expense", "expense or income")
	cmd.Flags().StringVar(&opts.month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVar(&opts.format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, "-" for stdout (default <type>-<month>.<format>)`)

	return cmd
}

func runExport(cmd *cobra.Command, opts exportOptions) error {
	kind, err := parseKind(opts.kind)
	if err != nil {
		return err
	}
	month := opts.month
	if month == "" {
		month = core.CurrentMonth(time.Now())
	} else if !core.IsValidMonth(month) {
		return fmt.Errorf("%w: %q, want YYYY-MM", core.ErrInvalidMonth, month)
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	sess, err := app.Sessions.Session(ctx, opts.userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	name := opts.output
	if name == "" {
		name = export.FileName(kind, month, format)
	}
	if name != "-" {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	n, err := writeExport(out, sess.Snapshot(), kind, month, format)
	if err != nil {
		return err
	}
	if name != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d transactions to %s\n", n, name)
	}
	return nil
}

// writeExport writes the month's transactions of kind and returns how many
// there were.
func writeExport(w io.Writer, st ledger.State, kind core.Kind, month string, format export.Format) (int, error) {
	list := monthOf(st, kind, month)
	if err := export.Write(w, format, list); err != nil {
		return 0, err
	}
	return len(list), nil
}
