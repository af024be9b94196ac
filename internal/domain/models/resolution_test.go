package models

import (
	"errors"
	"testing"
	"time"
)

func TestResolutionForPicksCoarsestFit(t *testing.T) {
	tests := []struct {
		period time.Duration
		want   Resolution
	}{
		{500 * time.Millisecond, ResolutionTick},
		{time.Second, ResolutionSecond},
		{59 * time.Second, ResolutionSecond},
		{time.Minute, ResolutionMinute},
		{59 * time.Minute, ResolutionMinute},
		{time.Hour, ResolutionHour},
		{23 * time.Hour, ResolutionHour},
		{oneDay, ResolutionDaily},
		{40 * oneDay, ResolutionDaily},
	}
	for _, tt := range tests {
		if got := resolutionFor(tt.period); got != tt.want {
			t.Errorf("resolutionFor(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}
}

func TestNormalizeBars(t *testing.T) {
	tests := []struct {
		res      Resolution
		barCount int
		wantRes  Resolution
		wantN    int
	}{
		{ResolutionTick, 10, ResolutionSecond, 10},
		{ResolutionHour, 2, ResolutionMinute, 120},
		{ResolutionMinute, 5, ResolutionMinute, 5},
		{ResolutionDaily, 3, ResolutionDaily, 3},
	}
	for _, tt := range tests {
		res, n := normalizeBars(tt.res, tt.barCount)
		if res != tt.wantRes || n != tt.wantN {
			t.Errorf("normalizeBars(%v, %d) = %v, %d; want %v, %d", tt.res, tt.barCount, res, n, tt.wantRes, tt.wantN)
		}
	}
}

func TestParseResolution(t *testing.T) {
	for in, want := range map[string]Resolution{
		"tick": ResolutionTick, "second": ResolutionSecond, "minute": ResolutionMinute,
		"hour": ResolutionHour, "daily": ResolutionDaily, "day": ResolutionDaily,
	} {
		got, err := ParseResolution(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Errorf("parse %q = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseResolution("weekly"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestParseDirectionAliases(t *testing.T) {
	for in, want := range map[string]Direction{"up": DirectionUp, "down": DirectionDown, "flat": DirectionFlat} {
		got, err := ParseDirection(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Errorf("parse %q = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestParseInsightSourceDefaultsToLive(t *testing.T) {
	src, err := ParseInsightSource("")
	if err != nil {
		t.Fatalf("parse empty source: %v", err)
	}
	if src != SourceLive {
		t.Errorf("source = %v, want live", src)
	}
}

func TestScoreClampAndFinalize(t *testing.T) {
	now := time.Date(2020, 1, 2, 15, 0, 0, 0, time.UTC)
	var s Score
	s.SetScore(ScoreMagnitude, 1.7, now)
	if s.Magnitude != 1 {
		t.Errorf("magnitude = %v, want clamped to 1", s.Magnitude)
	}
	s.SetScore(ScoreDirection, -0.2, now)
	if s.Direction != 0 {
		t.Errorf("direction = %v, want clamped to 0", s.Direction)
	}
	if !s.UpdatedUTC.Equal(now) {
		t.Errorf("updated = %s, want %s", s.UpdatedUTC, now)
	}

	s.Finalize(now.Add(time.Minute))
	if !s.IsFinal() {
		t.Fatal("score not final after Finalize")
	}
	s.SetScore(ScoreMagnitude, 0.5, now.Add(2*time.Minute))
	if s.Magnitude != 1 {
		t.Errorf("final score mutated to %v", s.Magnitude)
	}
}
