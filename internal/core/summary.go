package core

import (
	"sort"
	"strconv"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// PeriodSummary is the dashboard figure set for a day, a month or a year.
type PeriodSummary struct {
	Period             string           `json:"period"`
	Income             Money            `json:"income"`
	Expenses           Money            `json:"expenses"`
	Savings            Money            `json:"savings"`
	SavingsRate        float64          `json:"savingsRate"`
	ExpensesByCategory []CategoryAmount `json:"expensesByCategory"`
	IncomeByCategory   []CategoryAmount `json:"incomeByCategory"`
}

// SortedCategories orders category totals by amount descending, then name.
func SortedCategories(m map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for name, amount := range m {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func summarize(period string, expenses, income []Transaction) PeriodSummary {
	in := TotalAmount(income)
	out := TotalAmount(expenses)
	savings := in.Sub(out)
	return PeriodSummary{
		Period:             period,
		Income:             in,
		Expenses:           out,
		Savings:            savings,
		SavingsRate:        SavingsRate(savings, in),
		ExpensesByCategory: SortedCategories(AmountByCategory(expenses)),
		IncomeByCategory:   SortedCategories(AmountByCategory(income)),
	}
}

func DailySummary(expenses, income []Transaction, date string) PeriodSummary {
	return summarize(date, FilterByDate(expenses, date), FilterByDate(income, date))
}

func MonthlySummary(expenses, income []Transaction, month string) PeriodSummary {
	return summarize(month, FilterByMonth(expenses, month), FilterByMonth(income, month))
}

func YearlySummary(expenses, income []Transaction, year int) PeriodSummary {
	return summarize(strconv.Itoa(year), FilterByYear(expenses, year), FilterByYear(income, year))
}
