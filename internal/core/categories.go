package core

// Suggested categories offered by forms. Categories stay free-form; these
// lists only seed pickers and the budgeting screen.
var (
	DefaultExpenseCategories = []string{
		"Education",
		"Entertainment",
		"Self-improvement",
		"Food",
		"Dress",
		"Tech",
		"Friends",
		"Others",
	}

	DefaultIncomeCategories = []string{
		"Salary",
		"Freelance",
		"Investments",
		"Others",
	}
)

// Category names the suggestion rules look at.
const (
	CategoryEducation       = "Education"
	CategoryEntertainment   = "Entertainment"
	CategorySelfImprovement = "Self-improvement"
	CategoryFood            = "Food"
)
