package models

import (
	"fmt"
	"time"
)

// InsightRecord is the flat serialization form of an insight, shared by the
// HTTP API, the Kafka topic and the ClickHouse schema. Instants are unix
// seconds, the period is in seconds, the group id is null until assigned.
type InsightRecord struct {
	ID                  string   `json:"id"`
	SymbolID            string   `json:"symbol"`
	Ticker              string   `json:"ticker"`
	Market              string   `json:"market"`
	Type                string   `json:"type"`
	Direction           string   `json:"direction"`
	PeriodSeconds       float64  `json:"period"`
	Magnitude           *float64 `json:"magnitude"`
	Confidence          *float64 `json:"confidence"`
	Weight              *float64 `json:"weight"`
	CreatedTime         int64    `json:"created_time"`
	CloseTime           int64    `json:"close_time"`
	SourceModel         string   `json:"source_model,omitempty"`
	GroupID             *string  `json:"group_id"`
	Tag                 string   `json:"tag,omitempty"`
	EstimatedValue      float64  `json:"estimated_value"`
	ReferenceValue      float64  `json:"reference_value"`
	ReferenceValueFinal float64  `json:"reference_value_final"`
	ScoreMagnitude      float64  `json:"score_magnitude"`
	ScoreDirection      float64  `json:"score_direction"`
	ScoreIsFinal        bool     `json:"score_is_final"`
	Source              string   `json:"source"`
}

// ToRecord flattens the insight for storage and transport.
func (i *Insight) ToRecord() InsightRecord {
	rec := InsightRecord{
		ID:                  i.ID,
		SymbolID:            i.Symbol.ID,
		Ticker:              i.Symbol.Ticker,
		Market:              i.Symbol.Market,
		Type:                i.Type.String(),
		Direction:           i.Direction.String(),
		PeriodSeconds:       i.Period.Seconds(),
		Magnitude:           copyFloat(i.Magnitude),
		Confidence:          copyFloat(i.Confidence),
		Weight:              copyFloat(i.Weight),
		CreatedTime:         i.GeneratedUTC.Unix(),
		CloseTime:           i.CloseTimeUTC.Unix(),
		SourceModel:         i.SourceModel,
		Tag:                 i.Tag,
		EstimatedValue:      i.EstimatedValue,
		ReferenceValue:      i.ReferenceValue,
		ReferenceValueFinal: i.ReferenceValueFinal,
		ScoreMagnitude:      i.Score.Magnitude,
		ScoreDirection:      i.Score.Direction,
		ScoreIsFinal:        i.Score.IsFinal(),
		Source:              i.Source.String(),
	}
	if i.GroupID != "" {
		gid := i.GroupID
		rec.GroupID = &gid
	}
	return rec
}

// FromRecord rebuilds an insight from its flat form. The rebuilt entity
// carries a fixed-duration specification (or the open-ended one) so it can
// be re-resolved if needed. A set finalized flag writes both sub-scores and
// finalizes at the close instant; otherwise only nonzero sub-scores are
// written and the score stays open.
func FromRecord(rec InsightRecord) (*Insight, error) {
	typ, err := ParseInsightType(rec.Type)
	if err != nil {
		return nil, fmt.Errorf("decode insight record: %w", err)
	}
	dir, err := ParseDirection(rec.Direction)
	if err != nil {
		return nil, fmt.Errorf("decode insight record: %w", err)
	}
	src, err := ParseInsightSource(rec.Source)
	if err != nil {
		return nil, fmt.Errorf("decode insight record: %w", err)
	}

	ins := &Insight{
		ID:          rec.ID,
		SourceModel: rec.SourceModel,
		Source:      src,
		Tag:         rec.Tag,
		Symbol: Symbol{
			ID:     rec.SymbolID,
			Ticker: rec.Ticker,
			Market: rec.Market,
		},
		Type:                typ,
		Direction:           dir,
		Magnitude:           copyFloat(rec.Magnitude),
		Confidence:          copyFloat(rec.Confidence),
		Weight:              copyFloat(rec.Weight),
		GeneratedUTC:        time.Unix(rec.CreatedTime, 0).UTC(),
		EstimatedValue:      rec.EstimatedValue,
		ReferenceValue:      rec.ReferenceValue,
		ReferenceValueFinal: rec.ReferenceValueFinal,
	}
	if rec.GroupID != nil {
		ins.GroupID = *rec.GroupID
	}

	period := time.Duration(rec.PeriodSeconds * float64(time.Second))
	if period >= MaxPeriod || rec.CloseTime >= EndOfTime.Unix() {
		ins.spec = newOpenEndedSpec()
		ins.Period = MaxPeriod
		ins.CloseTimeUTC = EndOfTime
	} else {
		ins.spec = newFixedDurationSpec(period)
		ins.Period = period
		ins.CloseTimeUTC = time.Unix(rec.CloseTime, 0).UTC()
	}

	if rec.ScoreIsFinal {
		ins.Score.SetScore(ScoreMagnitude, rec.ScoreMagnitude, ins.CloseTimeUTC)
		ins.Score.SetScore(ScoreDirection, rec.ScoreDirection, ins.CloseTimeUTC)
		ins.Score.Finalize(ins.CloseTimeUTC)
	} else {
		if rec.ScoreMagnitude != 0 {
			ins.Score.SetScore(ScoreMagnitude, rec.ScoreMagnitude, ins.CloseTimeUTC)
		}
		if rec.ScoreDirection != 0 {
			ins.Score.SetScore(ScoreDirection, rec.ScoreDirection, ins.CloseTimeUTC)
		}
	}
	return ins, nil
}
