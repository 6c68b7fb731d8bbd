package core

import (
	"encoding/json"
	"testing"
)

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 5, 10))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-05-10"` {
		t.Fatalf("unexpected json %s", b)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2023-12-31"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.MonthKey() != "2023-12" {
		t.Fatalf("month key = %q", d.MonthKey())
	}
	if err := json.Unmarshal([]byte(`"31/12/2023"`), &d); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:   Money{Cents: 100},
		Category: "Food",
		Date:     NewDate(2025, 1, 1),
		Kind:     KindExpense,
		Source:   AccountWallet,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name  string
		tx    Transaction
		field string
		msg   string
	}{
		{"zero amount", Transaction{Category: "Food", Date: NewDate(2025, 1, 1), Kind: KindExpense, Source: AccountBank}, "amount", "Amount must be greater than 0"},
		{"no category", Transaction{Amount: Cents(1), Date: NewDate(2025, 1, 1), Kind: KindExpense, Source: AccountBank}, "category", "Category is required"},
		{"no date", Transaction{Amount: Cents(1), Category: "Food", Kind: KindExpense, Source: AccountBank}, "date", "Date is required"},
		{"no source", Transaction{Amount: Cents(1), Category: "Food", Date: NewDate(2025, 1, 1), Kind: KindExpense}, "source", "Source is required"},
		{"no destination", Transaction{Amount: Cents(1), Category: "Salary", Date: NewDate(2025, 1, 1), Kind: KindIncome, Source: AccountBank}, "destination", "Destination is required"},
		{"bad kind", Transaction{Amount: Cents(1), Category: "Food", Date: NewDate(2025, 1, 1)}, "type", "Type must be income or expense"},
	}
	for _, tc := range cases {
		err := tc.tx.Validate()
		ve, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("%s: expected *ValidationError, got %v", tc.name, err)
		}
		if got := ve.Fields[tc.field]; got != tc.msg {
			t.Errorf("%s: field %s = %q, want %q", tc.name, tc.field, got, tc.msg)
		}
	}
}

func TestTransactionNormalize(t *testing.T) {
	tx := Transaction{Kind: KindIncome, Source: AccountBank, Destination: AccountWallet, Category: " Salary "}
	n := tx.Normalize()
	if n.Source != "" || n.Destination != AccountWallet {
		t.Fatalf("unexpected accounts after normalize: %+v", n)
	}
	if n.Category != "Salary" {
		t.Fatalf("category not trimmed: %q", n.Category)
	}
	if n.Account() != AccountWallet {
		t.Fatalf("income account should be destination")
	}
}

func TestExpenseLimitValidate(t *testing.T) {
	if err := (ExpenseLimit{Category: "Food", Limit: Cents(0), Month: "2024-05"}).Validate(); err != nil {
		t.Fatalf("zero limit should be allowed: %v", err)
	}
	bads := []ExpenseLimit{
		{Category: "", Limit: Cents(100), Month: "2024-05"},
		{Category: "Food", Limit: Cents(-1), Month: "2024-05"},
		{Category: "Food", Limit: Cents(100), Month: "2024-13"},
		{Category: "Food", Limit: Cents(100), Month: "May"},
	}
	for i, l := range bads {
		if err := l.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseAccount(t *testing.T) {
	if a, err := ParseAccount(" Bank "); err != nil || a != AccountBank {
		t.Fatalf("got %q %v", a, err)
	}
	if a, err := ParseAccount(""); err != nil || a != "" {
		t.Fatalf("empty should be absent account, got %q %v", a, err)
	}
	if _, err := ParseAccount("crypto"); err == nil {
		t.Fatalf("expected error")
	}
}
