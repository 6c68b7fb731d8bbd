package gateway

import (
	"context"
	"fmt"

	"pennywise/internal/core"
)

// ReconcileLimits computes the writes that turn existing into desired.
// Limits are matched on (category, month); when desired names a pair twice
// the last entry wins. An empty desired set yields deletes only.
func ReconcileLimits(existing, desired []core.ExpenseLimit) (toDelete, toUpsert []core.ExpenseLimit) {
	want := make(map[string]core.ExpenseLimit, len(desired))
	order := make([]string, 0, len(desired))
	for _, l := range desired {
		if _, dup := want[l.Key()]; !dup {
			order = append(order, l.Key())
		}
		want[l.Key()] = l
	}

	have := make(map[string]core.ExpenseLimit, len(existing))
	for _, l := range existing {
		have[l.Key()] = l
		if _, keep := want[l.Key()]; !keep {
			toDelete = append(toDelete, l)
		}
	}

	for _, key := range order {
		l := want[key]
		if cur, ok := have[key]; ok && cur.Limit == l.Limit {
			continue
		}
		toUpsert = append(toUpsert, l)
	}
	return toDelete, toUpsert
}

// ApplyLimits reconciles the limits stored in s with desired. Callers run it
// inside a unit of work so the replacement is all or nothing.
func ApplyLimits(ctx context.Context, s LimitStore, desired []core.ExpenseLimit) error {
	existing, err := s.ListLimits(ctx)
	if err != nil {
		return fmt.Errorf("list limits: %w", err)
	}
	toDelete, toUpsert := ReconcileLimits(existing, desired)
	for _, l := range toDelete {
		if err := s.DeleteLimit(ctx, l.Category, l.Month); err != nil {
			return fmt.Errorf("delete limit %s/%s: %w", l.Month, l.Category, err)
		}
	}
	for _, l := range toUpsert {
		if _, err := s.UpsertLimit(ctx, l); err != nil {
			return fmt.Errorf("upsert limit %s/%s: %w", l.Month, l.Category, err)
		}
	}
	return nil
}

// MergeMonthLimits replaces the entries of month in all with monthly,
// leaving every other month untouched.
func MergeMonthLimits(all []core.ExpenseLimit, month string, monthly []core.ExpenseLimit) []core.ExpenseLimit {
	out := make([]core.ExpenseLimit, 0, len(all)+len(monthly))
	for _, l := range all {
		if l.Month != month {
			out = append(out, l)
		}
	}
	for _, l := range monthly {
		l.Month = month
		out = append(out, l)
	}
	return out
}
