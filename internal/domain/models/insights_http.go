package models

// Request structs for the insights HTTP endpoints, bound and validated by
// the handler layer.

// CreateInsightRequest carries one prediction. Exactly one of
// period_seconds, resolution+bar_count, close_time, or expiry_rule selects
// the validity window. A bar_count without a resolution counts minute bars.
type CreateInsightRequest struct {
	Symbol    string `json:"symbol" validate:"required"`
	Market    string `json:"market"`
	Type      string `json:"type" default:"price" validate:"omitempty,oneof=price volatility"`
	Direction string `json:"direction" validate:"required,oneof=up down flat"`

	Magnitude  *float64 `json:"magnitude"`
	Confidence *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Weight     *float64 `json:"weight" validate:"omitempty,gte=0,lte=1"`

	SourceModel string `json:"source_model"`
	Source      string `json:"source" validate:"omitempty,oneof=live backtest research"`
	Tag         string `json:"tag"`

	PeriodSeconds float64 `json:"period_seconds" validate:"omitempty,gte=1"`
	Resolution    string  `json:"resolution" validate:"omitempty,oneof=tick second minute hour daily day"`
	BarCount      int     `json:"bar_count" validate:"omitempty,gte=1"`
	CloseTime     string  `json:"close_time"` // RFC3339 or unix seconds, market-local wall clock
	ExpiryRule    string  `json:"expiry_rule"`

	Generated string `json:"generated"` // optional, RFC3339 or unix seconds
}

type ListInsightsRequest struct {
	Symbol string `query:"symbol"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit"`
}

type ActiveInsightsRequest struct {
	At     string `query:"at"`
	Symbol string `query:"symbol"`
	Limit  int    `query:"limit"`
}

type GroupInsightsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

// ScoreInsightRequest carries externally computed score fields.
type ScoreInsightRequest struct {
	DirectionScore      float64  `json:"direction_score" validate:"gte=0,lte=1"`
	MagnitudeScore      float64  `json:"magnitude_score" validate:"gte=0,lte=1"`
	Final               bool     `json:"final"`
	ReferenceValueFinal *float64 `json:"reference_value_final"`
	EstimatedValue      *float64 `json:"estimated_value"`
}
