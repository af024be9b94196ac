package hours

import (
	"strings"
	"testing"
	"time"
)

func usConfig() Config {
	return Config{
		Market:   "US",
		TimeZone: "UTC",
		Week: map[string][]string{
			"monday":    {"09:30-16:00"},
			"tuesday":   {"09:30-16:00"},
			"wednesday": {"09:30-16:00"},
			"thursday":  {"09:30-16:00"},
			"friday":    {"09:30-16:00"},
		},
		Holidays:    []string{"2020-01-20"},
		EarlyCloses: map[string]string{"2020-11-27": "13:00"},
		LateOpens:   map[string]string{"2020-01-08": "10:30"},
	}
}

// split day with a lunch break
func jpConfig() Config {
	return Config{
		Market:   "JP",
		TimeZone: "UTC",
		Week: map[string][]string{
			"monday":    {"00:00-02:30", "03:30-06:00"},
			"tuesday":   {"00:00-02:30", "03:30-06:00"},
			"wednesday": {"00:00-02:30", "03:30-06:00"},
			"thursday":  {"00:00-02:30", "03:30-06:00"},
			"friday":    {"00:00-02:30", "03:30-06:00"},
		},
	}
}

func mustExchange(t *testing.T, cfg Config) *Exchange {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("new exchange: %v", err)
	}
	return e
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %s: %v", value, err)
	}
	return ts.UTC()
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing market", func(c *Config) { c.Market = "" }, "market name"},
		{"unknown weekday", func(c *Config) { c.Week["someday"] = []string{"09:30-16:00"} }, "unknown weekday"},
		{"malformed session", func(c *Config) { c.Week["monday"] = []string{"9h-16h"} }, "malformed clock"},
		{"inverted session", func(c *Config) { c.Week["monday"] = []string{"16:00-09:30"} }, "closes before"},
		{"no sessions", func(c *Config) { c.Week = nil }, "no open sessions"},
		{"bad holiday", func(c *Config) { c.Holidays = []string{"Jan 20"} }, "holiday"},
		{"bad early close", func(c *Config) { c.EarlyCloses = map[string]string{"2020-11-27": "1pm"} }, "early close"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := usConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestIsOpen(t *testing.T) {
	e := mustExchange(t, usConfig())
	tests := []struct {
		name string
		at   string
		want bool
	}{
		{"mid session", "2020-01-02T10:00:00Z", true},
		{"before open", "2020-01-02T09:29:59Z", false},
		{"at open", "2020-01-02T09:30:00Z", true},
		{"at close", "2020-01-02T16:00:00Z", false},
		{"saturday", "2020-01-04T12:00:00Z", false},
		{"holiday", "2020-01-20T12:00:00Z", false},
		{"early close day before cutoff", "2020-11-27T12:59:00Z", true},
		{"early close day after cutoff", "2020-11-27T13:30:00Z", false},
		{"late open day before open", "2020-01-08T10:00:00Z", false},
		{"late open day after open", "2020-01-08T10:30:00Z", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.IsOpen(at(t, tt.at)); got != tt.want {
				t.Errorf("IsOpen = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOpenLunchBreak(t *testing.T) {
	e := mustExchange(t, jpConfig())
	if !e.IsOpen(at(t, "2020-01-02T01:00:00Z")) {
		t.Error("morning session reported closed")
	}
	if e.IsOpen(at(t, "2020-01-02T03:00:00Z")) {
		t.Error("lunch break reported open")
	}
	if !e.IsOpen(at(t, "2020-01-02T04:00:00Z")) {
		t.Error("afternoon session reported closed")
	}
}

func TestNextMarketOpen(t *testing.T) {
	e := mustExchange(t, usConfig())
	tests := []struct {
		name string
		from string
		want string
	}{
		{"already open", "2020-01-02T10:00:00Z", "2020-01-02T10:00:00Z"},
		{"before the bell", "2020-01-02T08:00:00Z", "2020-01-02T09:30:00Z"},
		{"after the close", "2020-01-02T16:00:00Z", "2020-01-03T09:30:00Z"},
		{"over the weekend", "2020-01-04T12:00:00Z", "2020-01-06T09:30:00Z"},
		{"over a holiday weekend", "2020-01-17T16:30:00Z", "2020-01-21T09:30:00Z"},
		{"late open day", "2020-01-08T09:30:00Z", "2020-01-08T10:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.NextMarketOpen(at(t, tt.from))
			if want := at(t, tt.want); !got.Equal(want) {
				t.Errorf("next open = %s, want %s", got, want)
			}
		})
	}
}

func TestEndOfBarsMinute(t *testing.T) {
	e := mustExchange(t, usConfig())
	tests := []struct {
		name     string
		start    string
		barCount int
		want     string
	}{
		{"inside session", "2020-01-02T14:30:00Z", 5, "2020-01-02T14:35:00Z"},
		{"spills past the close", "2020-01-02T15:59:00Z", 2, "2020-01-03T09:31:00Z"},
		{"spills over the weekend", "2020-01-03T15:59:00Z", 2, "2020-01-06T09:31:00Z"},
		{"unaligned start rounds down", "2020-01-02T14:30:30Z", 1, "2020-01-02T14:31:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.EndOfBars(at(t, tt.start), time.Minute, tt.barCount)
			if want := at(t, tt.want); !got.Equal(want) {
				t.Errorf("end = %s, want %s", got, want)
			}
		})
	}
}

func TestEndOfBarsSkipsLunchBreak(t *testing.T) {
	e := mustExchange(t, jpConfig())
	// one bar before the break, one after
	got := e.EndOfBars(at(t, "2020-01-02T02:29:00Z"), time.Minute, 2)
	if want := at(t, "2020-01-02T03:31:00Z"); !got.Equal(want) {
		t.Errorf("end = %s, want %s", got, want)
	}
}

func TestEndOfBarsDaily(t *testing.T) {
	e := mustExchange(t, usConfig())
	tests := []struct {
		name     string
		start    string
		barCount int
		want     string
	}{
		{"two weekdays", "2020-01-02T00:00:00Z", 2, "2020-01-04T00:00:00Z"},
		{"weekend does not count", "2020-01-03T00:00:00Z", 2, "2020-01-07T00:00:00Z"},
		{"holiday does not count", "2020-01-17T00:00:00Z", 2, "2020-01-22T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.EndOfBars(at(t, tt.start), oneDay, tt.barCount)
			if want := at(t, tt.want); !got.Equal(want) {
				t.Errorf("end = %s, want %s", got, want)
			}
		})
	}
}

func TestBarsBetweenInvertsEndOfBars(t *testing.T) {
	e := mustExchange(t, usConfig())
	starts := []string{"2020-01-02T14:30:00Z", "2020-01-03T15:59:00Z", "2020-01-17T10:00:00Z"}
	for _, start := range starts {
		for _, barCount := range []int{1, 7, 90} {
			s := at(t, start)
			end := e.EndOfBars(s, time.Minute, barCount)
			if got := e.BarsBetween(s, end, time.Minute); got != barCount {
				t.Errorf("BarsBetween(%s, %s) = %d, want %d", s, end, got, barCount)
			}
		}
	}
}

func TestBarsBetweenDaily(t *testing.T) {
	e := mustExchange(t, usConfig())
	// Thursday through Tuesday: Thu, Fri, Mon and Tue started
	got := e.BarsBetween(at(t, "2020-01-02T00:00:00Z"), at(t, "2020-01-07T12:00:00Z"), oneDay)
	if got != 4 {
		t.Errorf("daily bars = %d, want 4", got)
	}
}

func TestRegularSessionDuration(t *testing.T) {
	if got, want := mustExchange(t, usConfig()).RegularSessionDuration(), 6*time.Hour+30*time.Minute; got != want {
		t.Errorf("us session = %s, want %s", got, want)
	}
	if got, want := mustExchange(t, jpConfig()).RegularSessionDuration(), 5*time.Hour; got != want {
		t.Errorf("jp session = %s, want %s", got, want)
	}
	if got, want := AlwaysOpen("crypto").RegularSessionDuration(), oneDay; got != want {
		t.Errorf("always open session = %s, want %s", got, want)
	}
}

func TestAlwaysOpen(t *testing.T) {
	e := AlwaysOpen("crypto")
	sunday := at(t, "2020-01-05T03:00:00Z")
	if !e.IsOpen(sunday) {
		t.Error("always open market reported closed")
	}
	if got := e.NextMarketOpen(sunday); !got.Equal(sunday) {
		t.Errorf("next open = %s, want the same instant", got)
	}
	got := e.EndOfBars(at(t, "2020-01-05T14:30:00Z"), time.Minute, 5)
	if want := at(t, "2020-01-05T14:35:00Z"); !got.Equal(want) {
		t.Errorf("end = %s, want %s", got, want)
	}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry([]Config{usConfig(), jpConfig()})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	saturday := at(t, "2020-01-04T12:00:00Z")
	if r.Get("us").IsOpen(saturday) {
		t.Error("US reported open on Saturday")
	}
	// unknown markets trade around the clock
	if !r.Get("crypto").IsOpen(saturday) {
		t.Error("fallback calendar reported closed")
	}

	if _, ok := r.Exchange("US"); !ok {
		t.Error("configured market not found")
	}
	if _, ok := r.Exchange("crypto"); ok {
		t.Error("unknown market resolved to a configured calendar")
	}

	if got := r.Markets(); len(got) != 2 || got[0] != "JP" || got[1] != "US" {
		t.Errorf("markets = %v, want [JP US]", got)
	}
}

func TestRegistryRejectsBadConfig(t *testing.T) {
	cfg := usConfig()
	cfg.Week = nil
	if _, err := NewRegistry([]Config{cfg}); err == nil {
		t.Error("expected error for empty schedule")
	}
}
