package google

import (
	"context"
	"strings"
	"testing"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_InvalidCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", CredentialsJSON: "not-json"}, nil)
	if err == nil {
		t.Fatal("expected error with invalid credentials")
	}
	if !strings.Contains(err.Error(), "sheets service") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", CredentialsFile: "/nonexistent/creds.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file error, got %v", err)
	}
}

func TestClient_RequiresService(t *testing.T) {
	c := newClient(nil, Config{SpreadsheetID: "test"}, log.Discard())
	tx := core.Transaction{ID: "t1", Kind: core.KindExpense, Date: core.NewDate(2024, 5, 1)}

	if _, err := c.UpsertTransaction(context.Background(), "u1", tx); err == nil {
		t.Error("expected error without service")
	}
	if _, err := c.UpsertTransaction(context.Background(), "u1", core.Transaction{}); err == nil {
		t.Error("expected error without id")
	}
	if err := c.DeleteTransaction(context.Background(), "t1", 2024); err == nil {
		t.Error("expected error without service")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Transactions", 2024, "2024 Transactions"},
		{"2023 Transactions", 2024, "2023 Transactions"},
		{"  Ledger ", 2025, "2025 Ledger"},
		{"", 2024, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}

	c := newClient(nil, Config{SpreadsheetID: "x"}, log.Discard())
	if got := c.sheetName(2024); got != "2024 Transactions" {
		t.Errorf("default sheet name = %q", got)
	}
}

func TestRowRoundTrip(t *testing.T) {
	tx := core.Transaction{
		ID:          "t1",
		Kind:        core.KindExpense,
		Category:    "Food",
		Amount:      core.Cents(12050),
		Description: "Dinner",
		Date:        core.NewDate(2024, 5, 10),
		Source:      core.AccountWallet,
	}
	user, got, err := parseRow(rowValues("u1", tx))
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if user != "u1" {
		t.Errorf("user = %q", user)
	}
	if got.Amount != tx.Amount || got.Source != tx.Source || got.Date.String() != "2024-05-10" {
		t.Errorf("parseRow = %+v", got)
	}
}

func TestParseRowErrors(t *testing.T) {
	if _, _, err := parseRow([]any{"id", "u"}); err == nil {
		t.Error("expected short row error")
	}
	if _, _, err := parseRow([]any{"id", "u", "May 1", "expense", "Food", "1"}); err == nil {
		t.Error("expected date error")
	}
	if _, _, err := parseRow([]any{"id", "u", "2024-05-01", "expense", "Food", "abc"}); err == nil {
		t.Error("expected amount error")
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		header,
		{"a1", "u1"},
		{},
		{" b2 ", "u1"},
	}
	if got := findRow(values, "b2"); got != 4 {
		t.Errorf("findRow(b2) = %d, want 4", got)
	}
	if got := findRow(values, "zz"); got != 0 {
		t.Errorf("findRow(zz) = %d, want 0", got)
	}
}

func TestSameRow(t *testing.T) {
	a := []any{"t1", "u1", "2024-05-01", "expense", "Food", 12.5, "", "bank"}
	b := []any{"t1", "u1", "2024-05-01", "expense", "Food", "12.5", "", "bank"}
	if !sameRow(a, b) {
		t.Error("rows with equal text should match")
	}
	b[5] = "13"
	if sameRow(a, b) {
		t.Error("rows with different amounts should not match")
	}
}

func TestParseAmountToCents(t *testing.T) {
	tests := []struct {
		in    string
		want  int64
		valid bool
	}{
		{"12.50", 1250, true},
		{"12,5", 1250, true},
		{"7", 700, true},
		{"0.005", 1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-3", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseAmountToCents(tt.in)
		if ok != tt.valid || got != tt.want {
			t.Errorf("parseAmountToCents(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.valid)
		}
	}
}
