package core

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// ParseMonth parses a YYYY-MM key into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
	}
	return t, nil
}

func IsValidMonth(s string) bool {
	_, err := ParseMonth(s)
	return err == nil
}

// MonthKey renders year and month (1-12) as YYYY-MM.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// CurrentMonth returns the YYYY-MM key of now.
func CurrentMonth(now time.Time) string {
	return now.Format(monthLayout)
}

// PreviousMonth returns the key of the month before s, crossing year
// boundaries ("2024-01" -> "2023-12").
func PreviousMonth(s string) (string, error) {
	t, err := ParseMonth(s)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, -1, 0).Format(monthLayout), nil
}

// MonthLabel is the short English month name used on trend charts.
func MonthLabel(month int) string {
	return time.Month(month).String()[:3]
}
