package models

import (
	"fmt"
	"strings"
	"time"
)

// ExpiryFunc maps a calendar-local generated time to a local close time.
type ExpiryFunc func(local time.Time) time.Time

// Named expiry rules for validity windows easier to express as "until the
// end of X" than as a duration. All operate on local wall-clock time.

func ExpiryOneDay(t time.Time) time.Time { return t.AddDate(0, 0, 1) }

func ExpiryEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}

// ExpiryEndOfWeek is the following Monday's midnight.
func ExpiryEndOfWeek(t time.Time) time.Time {
	days := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, days)
}

func ExpiryEndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
}

func ExpiryOneMonth(t time.Time) time.Time { return t.AddDate(0, 1, 0) }

func ExpiryOneQuarter(t time.Time) time.Time { return t.AddDate(0, 3, 0) }

func ExpirySixMonths(t time.Time) time.Time { return t.AddDate(0, 6, 0) }

func ExpiryOneYear(t time.Time) time.Time { return t.AddDate(1, 0, 0) }

// ExpiryByName resolves an expiry rule from its wire key.
func ExpiryByName(name string) (ExpiryFunc, error) {
	switch strings.ToLower(name) {
	case "one_day":
		return ExpiryOneDay, nil
	case "end_of_day":
		return ExpiryEndOfDay, nil
	case "end_of_week":
		return ExpiryEndOfWeek, nil
	case "end_of_month":
		return ExpiryEndOfMonth, nil
	case "one_month":
		return ExpiryOneMonth, nil
	case "one_quarter":
		return ExpiryOneQuarter, nil
	case "six_months":
		return ExpirySixMonths, nil
	case "one_year":
		return ExpiryOneYear, nil
	}
	return nil, fmt.Errorf("%w: unknown expiry rule %q", ErrInvalidArgument, name)
}

// ExpiryRuleNames lists the keys ExpiryByName accepts.
func ExpiryRuleNames() []string {
	return []string{
		"one_day", "end_of_day", "end_of_week", "end_of_month",
		"one_month", "one_quarter", "six_months", "one_year",
	}
}
