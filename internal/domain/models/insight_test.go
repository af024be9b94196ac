package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testSymbol() Symbol { return NewSymbol("AAPL", "US") }

func resolvedInsight(t *testing.T, cal MarketHours, generated string, period time.Duration) *Insight {
	t.Helper()
	ins, err := Price(testSymbol(), period, DirectionUp)
	if err != nil {
		t.Fatalf("price insight: %v", err)
	}
	ins.GeneratedUTC = mustUTC(t, generated)
	if err := ins.SetPeriodAndCloseTime(cal); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return ins
}

func TestFactoryValidation(t *testing.T) {
	sym := testSymbol()
	tests := []struct {
		name string
		make func() (*Insight, error)
	}{
		{"zero period", func() (*Insight, error) { return Price(sym, 0, DirectionUp) }},
		{"sub second period", func() (*Insight, error) { return Price(sym, 500*time.Millisecond, DirectionDown) }},
		{"zero bar count", func() (*Insight, error) { return PriceAtResolution(sym, ResolutionMinute, 0, DirectionUp) }},
		{"negative bar count", func() (*Insight, error) { return PriceAtResolution(sym, ResolutionMinute, -3, DirectionUp) }},
		{"nil expiry rule", func() (*Insight, error) { return PriceWithExpiry(sym, nil, DirectionFlat) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.make(); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("err = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestNewInsightDefaults(t *testing.T) {
	ins, err := Price(testSymbol(), 5*time.Minute, DirectionUp, WithMagnitude(0.02), WithConfidence(0.6), WithSourceModel("momentum"))
	if err != nil {
		t.Fatalf("price insight: %v", err)
	}
	if ins.ID == "" {
		t.Error("id not assigned")
	}
	if ins.Source != SourceLive {
		t.Errorf("source = %v, want live", ins.Source)
	}
	if ins.Type != TypePrice {
		t.Errorf("type = %v, want price", ins.Type)
	}
	if ins.Period != 5*time.Minute {
		t.Errorf("period = %s, want 5m", ins.Period)
	}
	if ins.Magnitude == nil || *ins.Magnitude != 0.02 {
		t.Errorf("magnitude = %v, want 0.02", ins.Magnitude)
	}
	if ins.Confidence == nil || *ins.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6", ins.Confidence)
	}
	if ins.Weight != nil {
		t.Errorf("weight = %v, want nil", ins.Weight)
	}
	if ins.SourceModel != "momentum" {
		t.Errorf("source model = %q", ins.SourceModel)
	}
}

func TestSetPeriodAndCloseTimeFixedDuration(t *testing.T) {
	cal := &testHours{always: true}
	ins := resolvedInsight(t, cal, "2020-01-02T14:30:00Z", 5*time.Minute)
	if want := mustUTC(t, "2020-01-02T14:35:00Z"); !ins.CloseTimeUTC.Equal(want) {
		t.Errorf("close = %s, want %s", ins.CloseTimeUTC, want)
	}
	if ins.Period != 5*time.Minute {
		t.Errorf("period = %s, want 5m", ins.Period)
	}

	// resolving again must not move the close
	if err := ins.SetPeriodAndCloseTime(cal); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if want := mustUTC(t, "2020-01-02T14:35:00Z"); !ins.CloseTimeUTC.Equal(want) {
		t.Errorf("close moved to %s after second resolve", ins.CloseTimeUTC)
	}
}

func TestSetPeriodAndCloseTimeRequiresGeneratedTime(t *testing.T) {
	ins, err := Price(testSymbol(), 5*time.Minute, DirectionUp)
	if err != nil {
		t.Fatalf("price insight: %v", err)
	}
	if err := ins.SetPeriodAndCloseTime(&testHours{always: true}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestSetPeriodAndCloseTimeBarCount(t *testing.T) {
	ins, err := PriceAtResolution(testSymbol(), ResolutionMinute, 5, DirectionDown)
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	ins.GeneratedUTC = mustUTC(t, "2020-01-02T14:30:00Z")
	if err := ins.SetPeriodAndCloseTime(&testHours{always: true}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := mustUTC(t, "2020-01-02T14:35:00Z"); !ins.CloseTimeUTC.Equal(want) {
		t.Errorf("close = %s, want %s", ins.CloseTimeUTC, want)
	}
	if ins.Period != 5*time.Minute {
		t.Errorf("period = %s, want 5m", ins.Period)
	}
}

func TestSetPeriodAndCloseTimeFixedClose(t *testing.T) {
	cal := &testHours{}
	ins, err := PriceWithCloseTime(testSymbol(), time.Date(2020, 1, 2, 16, 0, 0, 0, time.UTC), DirectionUp)
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	ins.GeneratedUTC = mustUTC(t, "2020-01-02T10:00:00Z")
	if err := ins.SetPeriodAndCloseTime(cal); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if want := mustUTC(t, "2020-01-02T16:00:00Z"); !ins.CloseTimeUTC.Equal(want) {
		t.Errorf("close = %s, want %s", ins.CloseTimeUTC, want)
	}
	if want := 6 * time.Hour; ins.Period != want {
		t.Errorf("period = %s, want %s", ins.Period, want)
	}
}

func TestSetPeriodAndCloseTimeFixedCloseBeforeGenerated(t *testing.T) {
	ins, err := PriceWithCloseTime(testSymbol(), time.Date(2020, 1, 2, 9, 0, 0, 0, time.UTC), DirectionUp)
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	ins.GeneratedUTC = mustUTC(t, "2020-01-02T10:00:00Z")
	if err := ins.SetPeriodAndCloseTime(&testHours{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestSetPeriodAndCloseTimeExpiryRule(t *testing.T) {
	cal := &testHours{}
	ins, err := PriceWithExpiry(testSymbol(), ExpiryEndOfDay, DirectionUp)
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	ins.GeneratedUTC = mustUTC(t, "2020-01-02T10:00:00Z") // Thursday
	if err := ins.SetPeriodAndCloseTime(cal); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// midnight Friday is outside trading hours, snapped to the Friday open
	if want := mustUTC(t, "2020-01-03T09:30:00Z"); !ins.CloseTimeUTC.Equal(want) {
		t.Errorf("close = %s, want %s", ins.CloseTimeUTC, want)
	}
	if want := 23*time.Hour + 30*time.Minute; ins.Period != want {
		t.Errorf("period = %s, want %s", ins.Period, want)
	}
}

func TestOpenEndedInsight(t *testing.T) {
	ins, err := New(testSymbol(), TypePrice, DirectionUp, MaxPeriod)
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	if !ins.IsOpenEnded() {
		t.Fatal("expected open ended insight")
	}
	if ins.Period != MaxPeriod {
		t.Errorf("period = %s, want MaxPeriod", ins.Period)
	}
	if !ins.CloseTimeUTC.Equal(EndOfTime) {
		t.Errorf("close = %s, want EndOfTime", ins.CloseTimeUTC)
	}
	ins.GeneratedUTC = mustUTC(t, "2020-01-02T10:00:00Z")
	// open ended insights never consult the calendar
	if err := ins.SetPeriodAndCloseTime(nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ins.IsExpired(mustUTC(t, "2120-01-01T00:00:00Z")) {
		t.Error("open ended insight reported expired")
	}
}

func TestIsExpiredAndActive(t *testing.T) {
	ins := resolvedInsight(t, &testHours{always: true}, "2020-01-02T14:30:00Z", 5*time.Minute)
	tests := []struct {
		name    string
		at      string
		expired bool
	}{
		{"before close", "2020-01-02T14:34:59Z", false},
		{"at close", "2020-01-02T14:35:00Z", false},
		{"after close", "2020-01-02T14:35:01Z", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := mustUTC(t, tt.at)
			if got := ins.IsExpired(at); got != tt.expired {
				t.Errorf("IsExpired = %v, want %v", got, tt.expired)
			}
			if got := ins.IsActive(at); got == tt.expired {
				t.Errorf("IsActive = %v, want %v", got, !tt.expired)
			}
		})
	}
}

func TestExpire(t *testing.T) {
	ins := resolvedInsight(t, &testHours{always: true}, "2020-01-02T14:30:00Z", time.Hour)
	now := mustUTC(t, "2020-01-02T14:40:00Z")
	ins.Expire(now)
	if !ins.IsExpired(now) {
		t.Fatal("insight still active after Expire")
	}
	if ins.CloseTimeUTC.Before(ins.GeneratedUTC) {
		t.Errorf("close %s before generated %s", ins.CloseTimeUTC, ins.GeneratedUTC)
	}
	if want := ins.CloseTimeUTC.Sub(ins.GeneratedUTC); ins.Period != want {
		t.Errorf("period = %s, want %s", ins.Period, want)
	}

	// expiring an already expired insight leaves it untouched
	closeBefore := ins.CloseTimeUTC
	ins.Expire(mustUTC(t, "2020-01-02T15:00:00Z"))
	if !ins.CloseTimeUTC.Equal(closeBefore) {
		t.Errorf("close moved from %s to %s", closeBefore, ins.CloseTimeUTC)
	}
}

func TestGroup(t *testing.T) {
	a, _ := Price(testSymbol(), time.Minute, DirectionUp)
	b, _ := Price(NewSymbol("MSFT", "US"), time.Minute, DirectionDown)
	if err := Group(a, b); err != nil {
		t.Fatalf("group: %v", err)
	}
	if a.GroupID == "" || a.GroupID != b.GroupID {
		t.Errorf("group ids %q and %q, want equal non empty", a.GroupID, b.GroupID)
	}

	c, _ := Price(NewSymbol("GOOG", "US"), time.Minute, DirectionUp)
	if err := Group(a, c); !errors.Is(err, ErrAlreadyGrouped) {
		t.Fatalf("err = %v, want ErrAlreadyGrouped", err)
	}
	if c.GroupID != "" {
		t.Errorf("ungrouped insight picked up group id %q", c.GroupID)
	}

	if err := Group(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ins := resolvedInsight(t, &testHours{always: true}, "2020-01-02T14:30:00Z", time.Hour)
	ins.Magnitude = ptrFloat(0.05)
	ins.Confidence = ptrFloat(0.8)
	if err := Group(ins); err != nil {
		t.Fatalf("group: %v", err)
	}

	clone := ins.Clone()
	if clone.ID != ins.ID || clone.GroupID != ins.GroupID {
		t.Errorf("identity changed in clone")
	}
	if clone.Magnitude == ins.Magnitude {
		t.Error("magnitude pointer shared between clone and original")
	}
	*clone.Magnitude = 0.5
	if *ins.Magnitude != 0.05 {
		t.Errorf("original magnitude mutated to %v", *ins.Magnitude)
	}

	clone.Score.SetScore(ScoreDirection, 0.9, mustUTC(t, "2020-01-02T15:00:00Z"))
	if ins.Score.Direction != 0 {
		t.Errorf("original score mutated to %v", ins.Score.Direction)
	}
}

func TestStringSummary(t *testing.T) {
	ins := resolvedInsight(t, &testHours{always: true}, "2020-01-02T14:30:00Z", 5*time.Minute)
	s := ins.String()
	for _, want := range []string{"AAPL", "price", "up", "5m"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary %q missing %q", s, want)
		}
	}

	open, _ := New(testSymbol(), TypePrice, DirectionFlat, MaxPeriod)
	if s := open.String(); !strings.Contains(s, "open ended") {
		t.Errorf("summary %q missing open ended marker", s)
	}
}

func ptrFloat(v float64) *float64 { return &v }
