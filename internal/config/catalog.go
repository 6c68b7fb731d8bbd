package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pennywise/internal/core"
)

// Catalog lists the categories offered by forms. A YAML file can override
// either list:
//
//	expense: [Food, Rent, Tech]
//	income:  [Salary]
type Catalog struct {
	Expense []string `yaml:"expense" json:"expense"`
	Income  []string `yaml:"income" json:"income"`
}

func DefaultCatalog() Catalog {
	return Catalog{
		Expense: append([]string(nil), core.DefaultExpenseCategories...),
		Income:  append([]string(nil), core.DefaultIncomeCategories...),
	}
}

// LoadCatalog reads path, falling back to the defaults for an empty path or
// for a list the file leaves out.
func LoadCatalog(path string) (Catalog, error) {
	def := DefaultCatalog()
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog: %w", err)
	}
	c.Expense = clean(c.Expense)
	c.Income = clean(c.Income)
	if len(c.Expense) == 0 {
		c.Expense = def.Expense
	}
	if len(c.Income) == 0 {
		c.Income = def.Income
	}
	return c, nil
}

// For returns the list for kind.
func (c Catalog) For(kind core.Kind) []string {
	if kind == core.KindIncome {
		return c.Income
	}
	return c.Expense
}

// clean trims names and drops blanks and case-insensitive duplicates.
func clean(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
