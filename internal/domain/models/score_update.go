package models

import (
	"fmt"
	"time"
)

// ScoreUpdate carries externally computed score fields for one insight.
// Valuation fields are pointers so an update can leave them untouched.
type ScoreUpdate struct {
	DirectionScore      float64
	MagnitudeScore      float64
	Final               bool
	ReferenceValueFinal *float64
	EstimatedValue      *float64
}

// ApplyScoreUpdate writes an external score update onto the insight. A
// non-final update only touches nonzero sub-scores; a final one writes both
// and seals the score. Updates after finalization are rejected.
func (ins *Insight) ApplyScoreUpdate(upd ScoreUpdate, nowUTC time.Time) error {
	if ins.Score.IsFinal() {
		return fmt.Errorf("%w: score already finalized", ErrInvalidState)
	}
	if upd.Final {
		ins.Score.SetScore(ScoreDirection, upd.DirectionScore, nowUTC)
		ins.Score.SetScore(ScoreMagnitude, upd.MagnitudeScore, nowUTC)
		ins.Score.Finalize(nowUTC)
	} else {
		if upd.DirectionScore != 0 {
			ins.Score.SetScore(ScoreDirection, upd.DirectionScore, nowUTC)
		}
		if upd.MagnitudeScore != 0 {
			ins.Score.SetScore(ScoreMagnitude, upd.MagnitudeScore, nowUTC)
		}
	}
	if upd.ReferenceValueFinal != nil {
		ins.ReferenceValueFinal = *upd.ReferenceValueFinal
	}
	if upd.EstimatedValue != nil {
		ins.EstimatedValue = *upd.EstimatedValue
	}
	return nil
}
