package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pennywise/internal/core"
	"pennywise/internal/insights"
)

func newInsightsCommand() *cobra.Command {
	var userID, month string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Print the spending suggestions for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month == "" {
				month = core.CurrentMonth(time.Now())
			} else if !core.IsValidMonth(month) {
				return fmt.Errorf("%w: %q, want YYYY-MM", core.ErrInvalidMonth, month)
			}

			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			sess, err := app.Sessions.Session(ctx, userID)
			if err != nil {
				return err
			}
			st := sess.Snapshot()
			suggestions := app.Insights.Generate(st.Expenses, st.Income, st.ExpenseLimits, month)
			return printInsights(cmd.OutOrStdout(), month, suggestions, asJSON)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user whose ledger to analyse (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default current month)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")

	return cmd
}

func printInsights(w io.Writer, month string, suggestions []insights.Suggestion, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Month       string                `json:"month"`
			Suggestions []insights.Suggestion `json:"suggestions"`
		}{month, suggestions})
	}
	if len(suggestions) == 0 {
		_, err := fmt.Fprintf(w, "No suggestions for %s\n", month)
		return err
	}
	for _, s := range suggestions {
		if _, err := fmt.Fprintf(w, "%s [%s] %s\n", s.Emoji, s.Type, s.Message); err != nil {
			return err
		}
	}
	return nil
}
