package models

import (
	"fmt"
	"strings"
	"time"
)

// Resolution is a standard bar sampling granularity.
type Resolution int

const (
	ResolutionTick Resolution = iota
	ResolutionSecond
	ResolutionMinute
	ResolutionHour
	ResolutionDaily
)

const oneDay = 24 * time.Hour

// BarSpan returns the wall-clock length of one bar. Tick bars have no span.
func (r Resolution) BarSpan() time.Duration {
	switch r {
	case ResolutionSecond:
		return time.Second
	case ResolutionMinute:
		return time.Minute
	case ResolutionHour:
		return time.Hour
	case ResolutionDaily:
		return oneDay
	}
	return 0
}

func (r Resolution) String() string {
	switch r {
	case ResolutionTick:
		return "tick"
	case ResolutionSecond:
		return "second"
	case ResolutionMinute:
		return "minute"
	case ResolutionHour:
		return "hour"
	case ResolutionDaily:
		return "daily"
	}
	return "unknown"
}

// ParseResolution maps the wire form ("minute") to a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(s) {
	case "tick":
		return ResolutionTick, nil
	case "second":
		return ResolutionSecond, nil
	case "minute":
		return ResolutionMinute, nil
	case "hour":
		return ResolutionHour, nil
	case "daily", "day":
		return ResolutionDaily, nil
	}
	return ResolutionMinute, fmt.Errorf("%w: unknown resolution %q", ErrInvalidArgument, s)
}

// DefaultResolution is used when a request leaves resolution empty.
func DefaultResolution() Resolution { return ResolutionMinute }

// resolutionFor picks the coarsest standard bar size not exceeding d.
func resolutionFor(d time.Duration) Resolution {
	switch {
	case d < time.Second:
		return ResolutionTick
	case d < time.Minute:
		return ResolutionSecond
	case d < time.Hour:
		return ResolutionMinute
	case d < oneDay:
		return ResolutionHour
	}
	return ResolutionDaily
}

// normalizeBars rewrites granularities the calendar stepper does not handle
// directly: tick bars step as seconds, hour bars as 60 minute bars (an hour
// bar straddling a half-hour session open would otherwise misalign).
func normalizeBars(r Resolution, barCount int) (Resolution, int) {
	switch r {
	case ResolutionTick:
		return ResolutionSecond, barCount
	case ResolutionHour:
		return ResolutionMinute, barCount * 60
	}
	return r, barCount
}
