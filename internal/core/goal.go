package core

import (
	"strings"
)

// SavingsGoal is a target amount the user is putting money aside for.
type SavingsGoal struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TargetAmount  Money  `json:"targetAmount"`
	CurrentAmount Money  `json:"currentAmount"`
	Deadline      Date   `json:"deadline"`
}

func (g SavingsGoal) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(g.Name) == "" {
		ve.add("name", "Name is required")
	}
	if g.TargetAmount.Cents <= 0 {
		ve.add("targetAmount", "Target amount must be greater than 0")
	}
	if g.CurrentAmount.Cents < 0 {
		ve.add("currentAmount", "Current amount cannot be negative")
	}
	if g.Deadline.IsZero() {
		ve.add("deadline", "Deadline is required")
	}
	return ve.orNil()
}

// Contribute adds amount (which may be negative for a withdrawal) without
// letting the saved amount drop below zero.
func (g SavingsGoal) Contribute(amount Money) SavingsGoal {
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	if g.CurrentAmount.Cents < 0 {
		g.CurrentAmount = Money{}
	}
	return g
}

// Progress is the saved share of the target in percent, capped at 100.
func (g SavingsGoal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Reached reports whether the target has been met.
func (g SavingsGoal) Reached() bool {
	return g.CurrentAmount.Cents >= g.TargetAmount.Cents
}
