package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pennywise/internal/core"
)

var errBadBody = errors.New("invalid request body")

// bindJSON decodes the request body into v. Malformed amounts and dates come
// back as field errors; anything else as errBadBody.
func bindJSON(c *gin.Context, v any) error {
	err := c.ShouldBindJSON(v)
	if err == nil {
		return nil
	}
	var perr *time.ParseError
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return fieldError("amount", "Amount must be a number")
	case errors.As(err, &perr):
		return fieldError("date", "Date must be YYYY-MM-DD")
	}
	return errBadBody
}

// monthParam reads a YYYY-MM value from the query or path, defaulting to the
// month of now when absent.
func monthParam(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return core.CurrentMonth(now), nil
	}
	if !core.IsValidMonth(raw) {
		return "", fieldError("month", "Month must be YYYY-MM")
	}
	return raw, nil
}

func yearParam(raw string, now time.Time) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Year(), nil
	}
	y, err := core.ParseYear(raw)
	if err != nil {
		return 0, fieldError("year", "Year must be YYYY")
	}
	return y, nil
}

func dateParam(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Format("2006-01-02"), nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return "", fieldError("date", "Date must be YYYY-MM-DD")
	}
	return d.String(), nil
}

// kindParam accepts "expense"/"income" and their plurals; empty means any.
func kindParam(raw string) (core.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "expense", "expenses":
		return core.KindExpense, nil
	case "income", "incomes":
		return core.KindIncome, nil
	}
	return "", fieldError("type", "Type must be income or expense")
}

// transactionFilter narrows a listing. Empty fields do not filter.
type transactionFilter struct {
	Kind  core.Kind
	Month string
	Year  int
	Date  string
}

func parseTransactionFilter(c *gin.Context) (transactionFilter, error) {
	var f transactionFilter
	var err error
	if f.Kind, err = kindParam(c.Query("type")); err != nil {
		return f, err
	}
	if m := strings.TrimSpace(c.Query("month")); m != "" {
		if !core.IsValidMonth(m) {
			return f, fieldError("month", "Month must be YYYY-MM")
		}
		f.Month = m
	}
	if y := strings.TrimSpace(c.Query("year")); y != "" {
		if f.Year, err = core.ParseYear(y); err != nil {
			return f, fieldError("year", "Year must be YYYY")
		}
	}
	if d := strings.TrimSpace(c.Query("date")); d != "" {
		parsed, err := core.ParseDate(d)
		if err != nil {
			return f, fieldError("date", "Date must be YYYY-MM-DD")
		}
		f.Date = parsed.String()
	}
	return f, nil
}

func (f transactionFilter) apply(list []core.Transaction) []core.Transaction {
	if f.Kind != "" {
		list = core.FilterByKind(list, f.Kind)
	}
	if f.Month != "" {
		list = core.FilterByMonth(list, f.Month)
	}
	if f.Year != 0 {
		list = core.FilterByYear(list, f.Year)
	}
	if f.Date != "" {
		list = core.FilterByDate(list, f.Date)
	}
	if list == nil {
		list = []core.Transaction{}
	}
	return list
}
