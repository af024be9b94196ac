package models

import (
	"fmt"
	"strings"
)

// InsightType describes which quantity a prediction is about.
type InsightType int

const (
	TypePrice InsightType = iota
	TypeVolatility
)

func (t InsightType) String() string {
	switch t {
	case TypePrice:
		return "price"
	case TypeVolatility:
		return "volatility"
	}
	return "unknown"
}

// ParseInsightType maps the wire form ("price") to an InsightType.
func ParseInsightType(s string) (InsightType, error) {
	switch strings.ToLower(s) {
	case "price":
		return TypePrice, nil
	case "volatility":
		return TypeVolatility, nil
	}
	return TypePrice, fmt.Errorf("%w: unknown insight type %q", ErrInvalidArgument, s)
}

// Direction is the predicted movement of the insight's subject. Numeric
// values are chosen so the sign carries the direction in storage.
type Direction int

const (
	DirectionDown Direction = -1
	DirectionFlat Direction = 0
	DirectionUp   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "down"
	case DirectionFlat:
		return "flat"
	case DirectionUp:
		return "up"
	}
	return "unknown"
}

// DirectionFromChange classifies a predicted relative change. Changes whose
// absolute value is within tolerance count as flat.
func DirectionFromChange(change, tolerance float64) Direction {
	if tolerance < 0 {
		tolerance = 0
	}
	switch {
	case change > tolerance:
		return DirectionUp
	case change < -tolerance:
		return DirectionDown
	}
	return DirectionFlat
}

// ParseDirection maps the wire form ("up") to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "down":
		return DirectionDown, nil
	case "flat":
		return DirectionFlat, nil
	case "up":
		return DirectionUp, nil
	}
	return DirectionFlat, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
}

// InsightSource tells where and when an insight was generated.
type InsightSource int

const (
	SourceLive InsightSource = iota
	SourceBacktest
	SourceResearch
)

func (s InsightSource) String() string {
	switch s {
	case SourceLive:
		return "live"
	case SourceBacktest:
		return "backtest"
	case SourceResearch:
		return "research"
	}
	return "unknown"
}

// ParseInsightSource maps the wire form ("live") to an InsightSource.
func ParseInsightSource(s string) (InsightSource, error) {
	switch strings.ToLower(s) {
	case "live", "":
		return SourceLive, nil
	case "backtest":
		return SourceBacktest, nil
	case "research":
		return SourceResearch, nil
	}
	return SourceLive, fmt.Errorf("%w: unknown insight source %q", ErrInvalidArgument, s)
}

// ScoreType selects which sub-score of an insight score to address.
type ScoreType int

const (
	ScoreDirection ScoreType = iota
	ScoreMagnitude
)

func (t ScoreType) String() string {
	switch t {
	case ScoreDirection:
		return "direction"
	case ScoreMagnitude:
		return "magnitude"
	}
	return "unknown"
}
