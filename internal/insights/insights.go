// Package insights turns a month of transactions and its budget limits into a
// short list of human-readable suggestions.
//
// Rules run in a fixed order and every rule is evaluated; the concatenated
// output is then cut to the configured cap, so later rules lose out first.
package insights

import (
	"fmt"
	"math"

	"pennywise/internal/core"
)

const (
	TypeWarning Type = "warning"
	TypePraise  Type = "praise"
	TypeInfo    Type = "info"
)

const (
	DefaultMaxSuggestions = 4
	DefaultCurrency       = "₹"
)

type (
	Type string

	Suggestion struct {
		Type     Type   `json:"type"`
		Emoji    string `json:"emoji"`
		Message  string `json:"message"`
		Category string `json:"category,omitempty"`
	}

	// Input is everything a rule may look at. Expenses and Income are already
	// restricted to Month; Limits only holds the limits of Month.
	Input struct {
		Month      string
		Expenses   []core.Transaction
		Income     []core.Transaction
		Limits     []core.ExpenseLimit
		ByCategory map[string]core.Money
		Currency   string
	}

	// Rule appends zero or more suggestions for in.
	Rule func(in Input) []Suggestion

	Config struct {
		MaxSuggestions int
		Currency       string
	}

	Engine struct {
		cfg   Config
		rules []Rule
	}
)

// DefaultRules is the evaluation order: budget limits, education, self
// improvement, entertainment control, savings rate, food.
func DefaultRules() []Rule {
	return []Rule{
		limitRule,
		educationRule,
		selfImprovementRule,
		entertainmentRule,
		savingsRateRule,
		foodRule,
	}
}

// NewEngine builds an engine with the default rules. Zero config values fall
// back to the defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = DefaultMaxSuggestions
	}
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	return &Engine{cfg: cfg, rules: DefaultRules()}
}

// WithRules returns a copy of e evaluating rules instead of the defaults.
func (e *Engine) WithRules(rules ...Rule) *Engine {
	return &Engine{cfg: e.cfg, rules: rules}
}

// Generate evaluates every rule for month and returns at most
// MaxSuggestions results in rule order. expenses, income and limits may span
// any period; they are filtered to month here.
func (e *Engine) Generate(expenses, income []core.Transaction, limits []core.ExpenseLimit, month string) []Suggestion {
	monthly := core.FilterByMonth(expenses, month)
	in := Input{
		Month:      month,
		Expenses:   monthly,
		Income:     core.FilterByMonth(income, month),
		Limits:     limitsFor(limits, month),
		ByCategory: core.AmountByCategory(monthly),
		Currency:   e.cfg.Currency,
	}

	out := make([]Suggestion, 0, e.cfg.MaxSuggestions)
	for _, rule := range e.rules {
		out = append(out, rule(in)...)
	}
	if len(out) > e.cfg.MaxSuggestions {
		out = out[:e.cfg.MaxSuggestions]
	}
	return out
}

var defaultEngine = NewEngine(Config{})

// Generate runs the default engine.
func Generate(expenses, income []core.Transaction, limits []core.ExpenseLimit, month string) []Suggestion {
	return defaultEngine.Generate(expenses, income, limits, month)
}

func limitsFor(limits []core.ExpenseLimit, month string) []core.ExpenseLimit {
	out := make([]core.ExpenseLimit, 0, len(limits))
	for _, l := range limits {
		if l.Month == month {
			out = append(out, l)
		}
	}
	return out
}

func (in Input) limit(category string) (core.ExpenseLimit, bool) {
	for _, l := range in.Limits {
		if l.Category == category {
			return l, true
		}
	}
	return core.ExpenseLimit{}, false
}

func (in Input) spent(category string) core.Money {
	return in.ByCategory[category]
}

func percent(part, whole core.Money) float64 {
	if whole.Cents == 0 {
		return math.Inf(1)
	}
	return float64(part.Cents) / float64(whole.Cents) * 100
}

// limitRule warns once per category: over budget, or above 80% of it.
func limitRule(in Input) []Suggestion {
	var out []Suggestion
	seen := make(map[string]bool, len(in.Limits))
	for _, l := range in.Limits {
		if seen[l.Category] {
			continue
		}
		seen[l.Category] = true

		spent := in.spent(l.Category)
		switch {
		case spent.Cents > l.Limit.Cents:
			out = append(out, Suggestion{
				Type:     TypeWarning,
				Emoji:    "⚠️",
				Message:  fmt.Sprintf("You've exceeded your %s budget by %s. Consider reducing spending in this category.", l.Category, spent.Sub(l.Limit).Format(in.Currency)),
				Category: l.Category,
			})
		case l.Limit.Cents > 0 && spent.Cents*5 > l.Limit.Cents*4:
			out = append(out, Suggestion{
				Type:     TypeWarning,
				Emoji:    "🚨",
				Message:  fmt.Sprintf("You've used %.0f%% of your %s budget. You're close to your limit!", math.Round(percent(spent, l.Limit)), l.Category),
				Category: l.Category,
			})
		}
	}
	return out
}

func educationRule(in Input) []Suggestion {
	edu := in.spent(core.CategoryEducation)
	if edu.Cents > 0 && edu.Cents > in.spent(core.CategoryEntertainment).Cents {
		return []Suggestion{{
			Type:     TypePraise,
			Emoji:    "👏",
			Message:  fmt.Sprintf("Great job prioritizing education over entertainment! You've invested %s in your learning.", edu.Format(in.Currency)),
			Category: core.CategoryEducation,
		}}
	}
	return nil
}

func selfImprovementRule(in Input) []Suggestion {
	self := in.spent(core.CategorySelfImprovement)
	if self.Cents > 0 && self.Cents > in.spent(core.CategoryEntertainment).Cents {
		return []Suggestion{{
			Type:     TypePraise,
			Emoji:    "💪",
			Message:  fmt.Sprintf("Excellent focus on self-improvement! You've invested %s in bettering yourself.", self.Format(in.Currency)),
			Category: core.CategorySelfImprovement,
		}}
	}
	return nil
}

func entertainmentRule(in Input) []Suggestion {
	l, ok := in.limit(core.CategoryEntertainment)
	if !ok {
		return nil
	}
	spent := in.spent(core.CategoryEntertainment)
	if spent.Cents*2 < l.Limit.Cents {
		return []Suggestion{{
			Type:     TypePraise,
			Emoji:    "🎯",
			Message:  fmt.Sprintf("Well done on controlling entertainment expenses! You're using only %.0f%% of your budget.", math.Round(percent(spent, l.Limit))),
			Category: core.CategoryEntertainment,
		}}
	}
	return nil
}

func savingsRateRule(in Input) []Suggestion {
	income := core.TotalAmount(in.Income)
	if income.Cents <= 0 {
		return nil
	}
	savings := income.Sub(core.TotalAmount(in.Expenses))
	rate := core.SavingsRate(savings, income)
	switch {
	case savings.Cents*5 >= income.Cents:
		return []Suggestion{{
			Type:    TypePraise,
			Emoji:   "🌟",
			Message: fmt.Sprintf("Outstanding! You're saving %.1f%% of your income. Keep up this excellent financial discipline!", rate),
		}}
	case savings.Cents*10 >= income.Cents:
		return []Suggestion{{
			Type:    TypeInfo,
			Emoji:   "📈",
			Message: fmt.Sprintf("Good savings rate of %.1f%%. Try to reach 20%% for even better financial health.", rate),
		}}
	case savings.Cents < 0:
		return []Suggestion{{
			Type:    TypeWarning,
			Emoji:   "💸",
			Message: "You're spending more than you earn this month. Consider reviewing your expenses and cutting unnecessary costs.",
		}}
	}
	return nil
}

func foodRule(in Input) []Suggestion {
	l, ok := in.limit(core.CategoryFood)
	if !ok {
		return nil
	}
	if in.spent(core.CategoryFood).Cents*5 > l.Limit.Cents*4 {
		return []Suggestion{{
			Type:     TypeInfo,
			Emoji:    "🍽️",
			Message:  "Consider meal planning or cooking at home more often to manage your food expenses better.",
			Category: core.CategoryFood,
		}}
	}
	return nil
}
