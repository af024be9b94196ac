package models

import (
	"testing"
	"time"
)

func TestToRecordAndBack(t *testing.T) {
	ins := resolvedInsight(t, &testHours{always: true}, "2020-01-02T14:30:00Z", time.Hour)
	ins.Magnitude = ptrFloat(0.03)
	ins.SourceModel = "mean-reversion"
	ins.Tag = "intraday"
	ins.ReferenceValue = 101.5
	if err := Group(ins); err != nil {
		t.Fatalf("group: %v", err)
	}

	rec := ins.ToRecord()
	if rec.ID != ins.ID || rec.Ticker != "AAPL" || rec.Market != "US" {
		t.Errorf("record identity = %q/%q/%q", rec.ID, rec.Ticker, rec.Market)
	}
	if rec.PeriodSeconds != 3600 {
		t.Errorf("period seconds = %v, want 3600", rec.PeriodSeconds)
	}
	if rec.GroupID == nil || *rec.GroupID != ins.GroupID {
		t.Errorf("group id = %v, want %q", rec.GroupID, ins.GroupID)
	}
	if rec.CloseTime-rec.CreatedTime != 3600 {
		t.Errorf("close-created = %d, want 3600", rec.CloseTime-rec.CreatedTime)
	}

	back, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("from record: %v", err)
	}
	if back.ID != ins.ID || back.GroupID != ins.GroupID {
		t.Errorf("identity changed across round trip")
	}
	if !back.GeneratedUTC.Equal(ins.GeneratedUTC) || !back.CloseTimeUTC.Equal(ins.CloseTimeUTC) {
		t.Errorf("window %s..%s, want %s..%s", back.GeneratedUTC, back.CloseTimeUTC, ins.GeneratedUTC, ins.CloseTimeUTC)
	}
	if back.Period != time.Hour {
		t.Errorf("period = %s, want 1h", back.Period)
	}
	if back.Magnitude == nil || *back.Magnitude != 0.03 {
		t.Errorf("magnitude = %v, want 0.03", back.Magnitude)
	}
	if back.Magnitude == ins.Magnitude {
		t.Error("magnitude pointer shared with source insight")
	}
	if back.ReferenceValue != 101.5 || back.SourceModel != "mean-reversion" || back.Tag != "intraday" {
		t.Error("payload fields lost across round trip")
	}
}

func TestToRecordUngroupedHasNullGroup(t *testing.T) {
	ins, err := Price(testSymbol(), time.Minute, DirectionUp)
	if err != nil {
		t.Fatalf("insight: %v", err)
	}
	if rec := ins.ToRecord(); rec.GroupID != nil {
		t.Errorf("group id = %v, want nil", rec.GroupID)
	}
}

func TestFromRecordScoreImport(t *testing.T) {
	t.Run("final scores import finalized", func(t *testing.T) {
		rec := resolvedInsightRecord(t)
		rec.ScoreMagnitude = 0.7
		rec.ScoreDirection = 0.9
		rec.ScoreIsFinal = true
		ins, err := FromRecord(rec)
		if err != nil {
			t.Fatalf("from record: %v", err)
		}
		if !ins.Score.IsFinal() {
			t.Error("score not finalized")
		}
		if ins.Score.Magnitude != 0.7 || ins.Score.Direction != 0.9 {
			t.Errorf("score = %v/%v, want 0.7/0.9", ins.Score.Magnitude, ins.Score.Direction)
		}
		// a final score rejects further updates
		ins.Score.SetScore(ScoreDirection, 0.1, ins.CloseTimeUTC)
		if ins.Score.Direction != 0.9 {
			t.Errorf("final score mutated to %v", ins.Score.Direction)
		}
	})

	t.Run("open scores import only nonzero values", func(t *testing.T) {
		rec := resolvedInsightRecord(t)
		rec.ScoreMagnitude = 0
		rec.ScoreDirection = 0.4
		rec.ScoreIsFinal = false
		ins, err := FromRecord(rec)
		if err != nil {
			t.Fatalf("from record: %v", err)
		}
		if ins.Score.IsFinal() {
			t.Error("open score reported final")
		}
		if ins.Score.Direction != 0.4 {
			t.Errorf("direction score = %v, want 0.4", ins.Score.Direction)
		}
		if !ins.Score.UpdatedUTC.Equal(ins.CloseTimeUTC) {
			t.Errorf("score updated = %s, want close %s", ins.Score.UpdatedUTC, ins.CloseTimeUTC)
		}
	})
}

func TestFromRecordOpenEndedSentinels(t *testing.T) {
	rec := resolvedInsightRecord(t)
	rec.PeriodSeconds = MaxPeriod.Seconds()
	rec.CloseTime = EndOfTime.Unix()
	ins, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("from record: %v", err)
	}
	if !ins.IsOpenEnded() {
		t.Fatal("expected open ended insight")
	}
	if ins.Period != MaxPeriod || !ins.CloseTimeUTC.Equal(EndOfTime) {
		t.Errorf("sentinels not restored: period %s close %s", ins.Period, ins.CloseTimeUTC)
	}
}

func TestFromRecordRejectsUnknownEnums(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InsightRecord)
	}{
		{"bad type", func(r *InsightRecord) { r.Type = "sentiment" }},
		{"bad direction", func(r *InsightRecord) { r.Direction = "sideways" }},
		{"bad source", func(r *InsightRecord) { r.Source = "paper" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := resolvedInsightRecord(t)
			tt.mutate(&rec)
			if _, err := FromRecord(rec); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

func resolvedInsightRecord(t *testing.T) InsightRecord {
	t.Helper()
	return resolvedInsight(t, &testHours{always: true}, "2020-01-02T14:30:00Z", time.Hour).ToRecord()
}
