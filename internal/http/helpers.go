package http

import (
	"strings"

	"pennywise/internal/core"
)

// sanitizeInput removes control characters (except tab, newline and carriage
// return) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizeTransaction(t core.Transaction) core.Transaction {
	t.Category = sanitizeInput(t.Category)
	t.Description = sanitizeInput(t.Description)
	return t
}

func sanitizeLimits(in []core.ExpenseLimit) []core.ExpenseLimit {
	out := make([]core.ExpenseLimit, len(in))
	for i, l := range in {
		l.Category = sanitizeInput(l.Category)
		l.Month = strings.TrimSpace(l.Month)
		out[i] = l
	}
	return out
}

func fieldError(field, msg string) *core.ValidationError {
	return &core.ValidationError{Fields: map[string]string{field: msg}}
}
