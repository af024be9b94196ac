package models

import (
	"fmt"
	"time"
)

// ComputeCloseTimeForBars walks barCount bars of the given resolution
// forward from generatedUTC on the market's calendar, skipping closed
// periods, and returns the resulting close instant in UTC.
func ComputeCloseTimeForBars(hours MarketHours, generatedUTC time.Time, res Resolution, barCount int) (time.Time, error) {
	if barCount < 1 {
		return time.Time{}, fmt.Errorf("%w: bar count must be at least 1, got %d", ErrInvalidArgument, barCount)
	}
	res, barCount = normalizeBars(res, barCount)
	local := generatedUTC.In(hours.TimeZone())
	end := hours.EndOfBars(local, res.BarSpan(), barCount)
	return end.UTC(), nil
}

// ComputeCloseTime advances generatedUTC by period on the market's calendar.
// The calendar only steps in standard bar sizes, so the period is walked as
// whole bars of the coarsest size it contains, with any remainder stepped in
// minute bars.
func ComputeCloseTime(hours MarketHours, generatedUTC time.Time, period time.Duration) (time.Time, error) {
	if period < time.Second {
		return time.Time{}, fmt.Errorf("%w: period must be at least one second, got %s", ErrInvalidArgument, period)
	}
	res := resolutionFor(period)
	span := res.BarSpan()
	barCount := int(period / span)
	closeUTC, err := ComputeCloseTimeForBars(hours, generatedUTC, res, barCount)
	if err != nil {
		return time.Time{}, err
	}
	if closeUTC.Equal(generatedUTC) {
		// too small to register one bar at the chosen size
		closeUTC, err = ComputeCloseTimeForBars(hours, generatedUTC, ResolutionSecond, 1)
		if err != nil {
			return time.Time{}, err
		}
	}
	leftover := period - span*time.Duration(barCount)
	if res == ResolutionDaily && leftover != 0 {
		// a partial day means a fraction of the trading session, not of the
		// wall-clock day
		leftover = time.Duration(float64(leftover) / float64(oneDay) * float64(hours.RegularSessionDuration()))
	}
	if minutes := int(leftover.Round(time.Minute) / time.Minute); minutes > 0 {
		closeUTC, err = ComputeCloseTimeForBars(hours, closeUTC, ResolutionMinute, minutes)
		if err != nil {
			return time.Time{}, err
		}
	}
	return closeUTC, nil
}

// ComputePeriod reconciles two instants into a bar-aligned duration of
// trading time between them, not wall-clock time. Calendar stepping is not
// exactly invertible, so the result is the candidate (daily or minute bars)
// that lands closest to closeUTC when stepped forward again, with daily
// winning exact ties.
func ComputePeriod(hours MarketHours, generatedUTC, closeUTC time.Time) (time.Duration, error) {
	if generatedUTC.After(closeUTC) {
		return 0, fmt.Errorf("%w: generated time %s is after close time %s",
			ErrInvalidArgument, generatedUTC.Format(time.RFC3339), closeUTC.Format(time.RFC3339))
	}
	loc := hours.TimeZone()
	genLocal := generatedUTC.In(loc)
	closeLocal := closeUTC.In(loc)
	if sameDate(genLocal, closeLocal) {
		return closeLocal.Sub(genLocal), nil
	}

	var best time.Duration
	bestDev := time.Duration(-1)
	for _, span := range []time.Duration{oneDay, time.Minute} {
		count := hours.BarsBetween(genLocal, closeLocal, span)
		if count < 1 {
			continue
		}
		end := hours.EndOfBars(genLocal, span, count)
		dev := end.Sub(closeLocal)
		if dev < 0 {
			dev = -dev
		}
		if dev == 0 {
			return span * time.Duration(count), nil
		}
		if bestDev < 0 || dev < bestDev {
			bestDev = dev
			best = span * time.Duration(count)
		}
	}
	if bestDev < 0 {
		// closed throughout; no bars of either size fit
		return closeLocal.Sub(genLocal), nil
	}
	return best, nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
