package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"

	AccountBank   Account = "bank"
	AccountWallet Account = "wallet"
)

const dateLayout = "2006-01-02"

type (
	// Kind tells whether a transaction brings money in or takes it out.
	Kind string

	// Account is one of the two money pools a transaction can touch.
	// The zero value means "no account".
	Account string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string  `json:"id,omitempty"`
		Amount      Money   `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Date        Date    `json:"date"`
		Kind        Kind    `json:"type"`
		Source      Account `json:"source,omitempty"`      // expenses only
		Destination Account `json:"destination,omitempty"` // income only
	}

	ExpenseLimit struct {
		ID       string `json:"id,omitempty"`
		Category string `json:"category"`
		Limit    Money  `json:"limit"`
		Month    string `json:"month"` // YYYY-MM
	}
)

var (
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidKind    = errors.New("invalid transaction type")
	ErrInvalidAccount = errors.New("invalid account")
)

// ValidationError collects per-field messages so forms can show them inline.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidationError reports whether err carries field-level validation messages.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func (a Account) Valid() bool {
	return a == AccountBank || a == AccountWallet
}

// ParseAccount returns the account named by s; an empty string is the absent account.
func ParseAccount(s string) (Account, error) {
	a := Account(strings.ToLower(strings.TrimSpace(s)))
	if a == "" || a.Valid() {
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccount, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey renders the date's year and month as YYYY-MM.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(monthLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Account returns the account a transaction moves money on: the source of an
// expense or the destination of an income.
func (t Transaction) Account() Account {
	if t.Kind == KindExpense {
		return t.Source
	}
	return t.Destination
}

// Normalize clears whichever account field does not apply to the kind.
func (t Transaction) Normalize() Transaction {
	t.Category = strings.TrimSpace(t.Category)
	switch t.Kind {
	case KindExpense:
		t.Destination = ""
	case KindIncome:
		t.Source = ""
	}
	return t
}

// Validate checks the form-level rules. Messages are meant for display next
// to the offending field.
func (t Transaction) Validate() error {
	ve := &ValidationError{}
	if t.Amount.Cents <= 0 {
		ve.add("amount", "Amount must be greater than 0")
	}
	if strings.TrimSpace(t.Category) == "" {
		ve.add("category", "Category is required")
	}
	if t.Date.IsZero() {
		ve.add("date", "Date is required")
	}
	switch t.Kind {
	case KindExpense:
		if !t.Source.Valid() {
			ve.add("source", "Source is required")
		}
	case KindIncome:
		if !t.Destination.Valid() {
			ve.add("destination", "Destination is required")
		}
	default:
		ve.add("type", "Type must be income or expense")
	}
	return ve.orNil()
}

func (l ExpenseLimit) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(l.Category) == "" {
		ve.add("category", "Category is required")
	}
	if l.Limit.Cents < 0 {
		ve.add("limit", "Limit cannot be negative")
	}
	if !IsValidMonth(l.Month) {
		ve.add("month", "Month must be YYYY-MM")
	}
	return ve.orNil()
}

// Key identifies a limit by its (category, month) pair.
func (l ExpenseLimit) Key() string {
	return l.Month + "|" + l.Category
}
