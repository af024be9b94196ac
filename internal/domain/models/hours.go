package models

import "time"

// MarketHours answers trading-calendar queries for one market. Every instant
// passed in or returned is calendar-local; UTC conversion happens at the
// call sites in this package.
type MarketHours interface {
	// IsOpen reports whether the market trades at the local instant.
	IsOpen(local time.Time) bool
	// NextMarketOpen returns the first open local instant at or after local.
	NextMarketOpen(local time.Time) time.Time
	// EndOfBars returns the local end time after stepping barCount bars of
	// barSize forward from startLocal, counting only bars that overlap open
	// trading time.
	EndOfBars(startLocal time.Time, barSize time.Duration, barCount int) time.Time
	// BarsBetween counts bars of barSize overlapping open trading time in
	// [startLocal, endLocal).
	BarsBetween(startLocal, endLocal time.Time, barSize time.Duration) int
	// RegularSessionDuration is the total open time of a normal trading day.
	RegularSessionDuration() time.Duration
	// TimeZone is the calendar's local zone.
	TimeZone() *time.Location
}
