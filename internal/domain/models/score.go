package models

import "time"

// Score accumulates how an insight's prediction compared to realized
// outcomes. It is written by external scoring collaborators over the
// insight's evaluation lifetime; this package only stores it.
type Score struct {
	Direction  float64
	Magnitude  float64
	UpdatedUTC time.Time

	final bool
}

// SetScore writes one sub-score, clamped to [0, 1]. Writes after Finalize
// are ignored.
func (s *Score) SetScore(kind ScoreType, value float64, nowUTC time.Time) {
	if s.final {
		return
	}
	s.UpdatedUTC = nowUTC
	switch kind {
	case ScoreDirection:
		s.Direction = clamp01(value)
	case ScoreMagnitude:
		s.Magnitude = clamp01(value)
	}
}

// Finalize marks the score as the last word on this insight.
func (s *Score) Finalize(nowUTC time.Time) {
	s.UpdatedUTC = nowUTC
	s.final = true
}

func (s *Score) IsFinal() bool { return s.final }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
