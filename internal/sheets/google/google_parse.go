package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

// Mirror sheet columns.
var header = []any{"ID", "User", "Date", "Type", "Category", "Amount", "Description", "Account"}

const (
	colID = iota
	colUser
	colDate
	colKind
	colCategory
	colAmount
	colDescription
	colAccount
	numCols
)

// rowValues renders t as a sheet row.
func rowValues(userID string, t core.Transaction) []any {
	amount, _ := t.Amount.Decimal().Float64()
	return []any{t.ID, userID, t.Date.String(), string(t.Kind), t.Category, amount, t.Description, string(t.Account())}
}

// parseRow reads a row written by rowValues back. It returns the owning user
// as well.
func parseRow(row []any) (string, core.Transaction, error) {
	cols := toStrings(row)
	if len(cols) < colAmount+1 {
		return "", core.Transaction{}, fmt.Errorf("short row: %d columns", len(cols))
	}
	d, err := core.ParseDate(cols[colDate])
	if err != nil {
		return "", core.Transaction{}, fmt.Errorf("row %s: %w", cols[colID], err)
	}
	cents, ok := parseAmountToCents(cols[colAmount])
	if !ok {
		return "", core.Transaction{}, fmt.Errorf("row %s: bad amount %q", cols[colID], cols[colAmount])
	}
	t := core.Transaction{
		ID:          cols[colID],
		Kind:        core.Kind(cols[colKind]),
		Category:    cols[colCategory],
		Amount:      core.Cents(cents),
		Date:        d,
		Description: safeGet(cols, colDescription),
	}
	account := core.Account(safeGet(cols, colAccount))
	if t.Kind == core.KindExpense {
		t.Source = account
	} else {
		t.Destination = account
	}
	return cols[colUser], t, nil
}

// findRow returns the 1-based sheet row whose first column is id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func sameRow(a, b []any) bool {
	as, bs := toStrings(a), toStrings(b)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts "12.50", "12,50" or a bare number.
func parseAmountToCents(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	m, err := core.FromDecimal(d)
	if err != nil {
		return 0, false
	}
	return m.Cents, true
}
