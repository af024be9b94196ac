package models

import (
	"errors"
	"testing"
	"time"
)

func TestApplyScoreUpdatePartial(t *testing.T) {
	ins, err := Price(testSymbol(), time.Hour, DirectionUp)
	if err != nil {
		t.Fatalf("price insight: %v", err)
	}
	now := mustUTC(t, "2025-06-02T15:00:00Z")

	if err := ins.ApplyScoreUpdate(ScoreUpdate{DirectionScore: 0.4}, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := ins.Score.Direction; got != 0.4 {
		t.Errorf("direction = %v, want 0.4", got)
	}
	if got := ins.Score.Magnitude; got != 0 {
		t.Errorf("magnitude = %v, want untouched 0", got)
	}
	if ins.Score.IsFinal() {
		t.Error("partial update must not finalize")
	}
	if !ins.Score.UpdatedUTC.Equal(now) {
		t.Errorf("updated = %v, want %v", ins.Score.UpdatedUTC, now)
	}

	// zero sub-scores in a later partial update leave prior values alone
	later := now.Add(time.Minute)
	if err := ins.ApplyScoreUpdate(ScoreUpdate{MagnitudeScore: 0.7}, later); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if got := ins.Score.Direction; got != 0.4 {
		t.Errorf("direction after second update = %v, want 0.4", got)
	}
	if got := ins.Score.Magnitude; got != 0.7 {
		t.Errorf("magnitude = %v, want 0.7", got)
	}
}

func TestApplyScoreUpdateFinalSeals(t *testing.T) {
	ins, err := Price(testSymbol(), time.Hour, DirectionDown)
	if err != nil {
		t.Fatalf("price insight: %v", err)
	}
	now := mustUTC(t, "2025-06-02T16:00:00Z")

	refFinal := 187.25
	est := 0.0123
	upd := ScoreUpdate{
		DirectionScore:      1,
		MagnitudeScore:      0, // final updates write zeros too
		Final:               true,
		ReferenceValueFinal: &refFinal,
		EstimatedValue:      &est,
	}
	if err := ins.ApplyScoreUpdate(upd, now); err != nil {
		t.Fatalf("apply final: %v", err)
	}
	if !ins.Score.IsFinal() {
		t.Fatal("final update must finalize the score")
	}
	if ins.Score.Direction != 1 || ins.Score.Magnitude != 0 {
		t.Errorf("scores = (%v, %v), want (1, 0)", ins.Score.Direction, ins.Score.Magnitude)
	}
	if ins.ReferenceValueFinal != refFinal {
		t.Errorf("reference final = %v, want %v", ins.ReferenceValueFinal, refFinal)
	}
	if ins.EstimatedValue != est {
		t.Errorf("estimated = %v, want %v", ins.EstimatedValue, est)
	}

	// sealed insights reject any further update
	err = ins.ApplyScoreUpdate(ScoreUpdate{DirectionScore: 0.2}, now.Add(time.Minute))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
	if ins.Score.Direction != 1 {
		t.Errorf("direction after rejected update = %v, want 1", ins.Score.Direction)
	}
}

func TestApplyScoreUpdateClampsRange(t *testing.T) {
	ins, err := Price(testSymbol(), time.Hour, DirectionFlat)
	if err != nil {
		t.Fatalf("price insight: %v", err)
	}
	now := mustUTC(t, "2025-06-02T17:00:00Z")

	if err := ins.ApplyScoreUpdate(ScoreUpdate{DirectionScore: 1.8, MagnitudeScore: -0.3, Final: true}, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ins.Score.Direction != 1 {
		t.Errorf("direction = %v, want clamped 1", ins.Score.Direction)
	}
	if ins.Score.Magnitude != 0 {
		t.Errorf("magnitude = %v, want clamped 0", ins.Score.Magnitude)
	}
}
