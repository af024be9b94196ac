package models

import (
	"testing"
	"time"
)

func TestExpiryRules(t *testing.T) {
	// Thursday, early January
	at := time.Date(2020, 1, 2, 10, 15, 0, 0, time.UTC)

	tests := []struct {
		name string
		want time.Time
	}{
		{"one_day", time.Date(2020, 1, 3, 10, 15, 0, 0, time.UTC)},
		{"end_of_day", time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"end_of_week", time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)},
		{"end_of_month", time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"one_month", time.Date(2020, 2, 2, 10, 15, 0, 0, time.UTC)},
		{"one_quarter", time.Date(2020, 4, 2, 10, 15, 0, 0, time.UTC)},
		{"six_months", time.Date(2020, 7, 2, 10, 15, 0, 0, time.UTC)},
		{"one_year", time.Date(2021, 1, 2, 10, 15, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := ExpiryByName(tt.name)
			if err != nil {
				t.Fatalf("rule lookup: %v", err)
			}
			if got := rule(at); !got.Equal(tt.want) {
				t.Errorf("expiry = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExpiryEndOfWeekFromMonday(t *testing.T) {
	// already Monday: the rule still moves forward a full week
	at := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	if got, want := ExpiryEndOfWeek(at), time.Date(2020, 1, 13, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("expiry = %s, want %s", got, want)
	}
}

func TestExpiryByNameUnknown(t *testing.T) {
	if _, err := ExpiryByName("fortnight"); err == nil {
		t.Error("expected error for unknown rule name")
	}
}

func TestExpiryRuleNamesResolve(t *testing.T) {
	for _, name := range ExpiryRuleNames() {
		if _, err := ExpiryByName(name); err != nil {
			t.Errorf("listed rule %q does not resolve: %v", name, err)
		}
	}
}
