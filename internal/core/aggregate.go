package core

import "strconv"

// TrendPoint is one calendar month on a yearly chart.
type TrendPoint struct {
	Month  string `json:"month"` // "Jan"
	Key    string `json:"key"`   // "2024-01"
	Amount Money  `json:"amount"`
}

// FilterByMonth keeps the transactions dated in month (YYYY-MM), preserving order.
func FilterByMonth(list []Transaction, month string) []Transaction {
	return filter(list, func(t Transaction) bool { return t.Date.MonthKey() == month })
}

// FilterByYear keeps the transactions dated in year, preserving order.
func FilterByYear(list []Transaction, year int) []Transaction {
	return filter(list, func(t Transaction) bool { return !t.Date.IsZero() && t.Date.Year() == year })
}

// FilterByDate keeps the transactions dated exactly on date (YYYY-MM-DD).
func FilterByDate(list []Transaction, date string) []Transaction {
	return filter(list, func(t Transaction) bool { return t.Date.String() == date })
}

// FilterByKind keeps the transactions of one kind.
func FilterByKind(list []Transaction, kind Kind) []Transaction {
	return filter(list, func(t Transaction) bool { return t.Kind == kind })
}

func filter(list []Transaction, keep func(Transaction) bool) []Transaction {
	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// TotalAmount sums the amounts of list. An empty list totals zero.
func TotalAmount(list []Transaction) Money {
	var total Money
	for _, t := range list {
		total = total.Add(t.Amount)
	}
	return total
}

// AmountByCategory sums amounts per category. Categories with no
// transactions are absent from the result.
func AmountByCategory(list []Transaction) map[string]Money {
	out := make(map[string]Money)
	for _, t := range list {
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// MonthlySavings is the month's income minus the month's expenses.
func MonthlySavings(expenses, income []Transaction, month string) Money {
	return TotalAmount(FilterByMonth(income, month)).Sub(TotalAmount(FilterByMonth(expenses, month)))
}

// DailySavings is the day's income minus the day's expenses.
func DailySavings(expenses, income []Transaction, date string) Money {
	return TotalAmount(FilterByDate(income, date)).Sub(TotalAmount(FilterByDate(expenses, date)))
}

// YearlySavings is the year's income minus the year's expenses.
func YearlySavings(expenses, income []Transaction, year int) Money {
	return TotalAmount(FilterByYear(income, year)).Sub(TotalAmount(FilterByYear(expenses, year)))
}

// SavingsRate is savings as a percentage of income, or 0 when there is no income.
func SavingsRate(savings, income Money) float64 {
	if income.Cents <= 0 {
		return 0
	}
	return float64(savings.Cents) / float64(income.Cents) * 100
}

// MonthlyTrends returns exactly twelve points, January to December of year,
// each the total of that month. Months without transactions are zero.
func MonthlyTrends(list []Transaction, year int) []TrendPoint {
	byMonth := make(map[string]Money, 12)
	for _, t := range FilterByYear(list, year) {
		byMonth[t.Date.MonthKey()] = byMonth[t.Date.MonthKey()].Add(t.Amount)
	}
	return trendPoints(year, func(key string) Money { return byMonth[key] })
}

// SavingsTrends returns the monthly savings for each month of year.
func SavingsTrends(expenses, income []Transaction, year int) []TrendPoint {
	spent := MonthlyTrends(expenses, year)
	earned := MonthlyTrends(income, year)
	points := make([]TrendPoint, 12)
	for i := range points {
		points[i] = earned[i]
		points[i].Amount = earned[i].Amount.Sub(spent[i].Amount)
	}
	return points
}

func trendPoints(year int, amount func(key string) Money) []TrendPoint {
	points := make([]TrendPoint, 0, 12)
	for m := 1; m <= 12; m++ {
		key := MonthKey(year, m)
		points = append(points, TrendPoint{Month: MonthLabel(m), Key: key, Amount: amount(key)})
	}
	return points
}

// ParseYear parses a four digit year.
func ParseYear(s string) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil || y < 1 || y > 9999 {
		return 0, ErrInvalidYear
	}
	return y, nil
}
