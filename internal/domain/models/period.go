package models

import (
	"fmt"
	"time"
)

// periodSpecKind discriminates the ways a validity window can be expressed.
type periodSpecKind int

const (
	specFixedDuration periodSpecKind = iota
	specBarCount
	specFixedCloseTime
	specExpiryFunc
	specOpenEnded
)

// periodSpec captures how a caller expressed an insight's validity window
// until a calendar is available to resolve it. Exactly one variant is
// attached per insight at construction and never replaced.
type periodSpec struct {
	kind       periodSpecKind
	duration   time.Duration // specFixedDuration
	resolution Resolution    // specBarCount
	barCount   int           // specBarCount
	closeLocal time.Time     // specFixedCloseTime, market-local wall clock
	expiry     ExpiryFunc    // specExpiryFunc
}

func newFixedDurationSpec(d time.Duration) *periodSpec {
	if d == 0 {
		d = time.Second
	}
	return &periodSpec{kind: specFixedDuration, duration: d}
}

func newBarCountSpec(res Resolution, barCount int) *periodSpec {
	return &periodSpec{kind: specBarCount, resolution: res, barCount: barCount}
}

func newFixedCloseTimeSpec(closeLocal time.Time) *periodSpec {
	return &periodSpec{kind: specFixedCloseTime, closeLocal: closeLocal}
}

func newExpirySpec(fn ExpiryFunc) *periodSpec {
	return &periodSpec{kind: specExpiryFunc, expiry: fn}
}

func newOpenEndedSpec() *periodSpec {
	return &periodSpec{kind: specOpenEnded}
}

// resolve computes the canonical (period, closeUTC) pair for the insight's
// generated time and writes it onto the entity. This is the only mutation
// point for those two fields after construction.
func (p *periodSpec) resolve(ins *Insight, hours MarketHours) error {
	if ins.GeneratedUTC.IsZero() {
		return fmt.Errorf("%w: generated time must be set before resolving the close time", ErrInvalidState)
	}
	switch p.kind {
	case specFixedDuration:
		closeUTC, err := ComputeCloseTime(hours, ins.GeneratedUTC, p.duration)
		if err != nil {
			return err
		}
		ins.Period = p.duration
		ins.CloseTimeUTC = closeUTC

	case specBarCount:
		res, count := normalizeBars(p.resolution, p.barCount)
		closeUTC, err := ComputeCloseTimeForBars(hours, ins.GeneratedUTC, res, count)
		if err != nil {
			return err
		}
		ins.Period = res.BarSpan() * time.Duration(count)
		ins.CloseTimeUTC = closeUTC

	case specFixedCloseTime:
		closeUTC := asWall(p.closeLocal, hours.TimeZone()).UTC()
		if closeUTC.Before(ins.GeneratedUTC) {
			return fmt.Errorf("%w: close time %s precedes generated time %s", ErrInvalidArgument,
				closeUTC.Format(time.RFC3339), ins.GeneratedUTC.Format(time.RFC3339))
		}
		period, err := ComputePeriod(hours, ins.GeneratedUTC, closeUTC)
		if err != nil {
			return err
		}
		ins.Period = period
		ins.CloseTimeUTC = closeUTC

	case specExpiryFunc:
		loc := hours.TimeZone()
		closeLocal := asWall(p.expiry(ins.GeneratedUTC.In(loc)), loc)
		if !hours.IsOpen(closeLocal) {
			closeLocal = hours.NextMarketOpen(closeLocal)
		}
		closeUTC := closeLocal.UTC()
		ins.Period = closeUTC.Sub(ins.GeneratedUTC)
		ins.CloseTimeUTC = closeUTC

	case specOpenEnded:
		ins.Period = MaxPeriod
		ins.CloseTimeUTC = EndOfTime

	default:
		return fmt.Errorf("%w: unknown period specification", ErrInvalidState)
	}
	return nil
}

// asWall reinterprets t's wall-clock reading in loc. Callers hand in local
// close times as plain instants; whatever zone they were built in, the wall
// clock is what they meant.
func asWall(t time.Time, loc *time.Location) time.Time {
	if t.Location() == loc {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
