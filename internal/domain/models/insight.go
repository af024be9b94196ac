package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EndOfTime is the close instant of an open-ended insight.
var EndOfTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// MaxPeriod is the period of an open-ended insight. Kept well inside the
// representable range so duration arithmetic around it cannot overflow.
const MaxPeriod = 200 * 365 * oneDay

// Insight is a single timestamped prediction for one instrument with an
// explicit validity window. The window is expressed at construction as one
// of several period specifications and resolved to a canonical
// (period, close time) pair by SetPeriodAndCloseTime once a calendar is
// available. Resolution, grouping and cloning are synchronous and assume a
// single writer; Clone hands out snapshots safe for concurrent readers.
type Insight struct {
	ID          string
	GroupID     string // empty until grouped; assigned at most once
	SourceModel string
	Source      InsightSource
	Tag         string

	GeneratedUTC time.Time
	CloseTimeUTC time.Time
	Period       time.Duration

	Symbol    Symbol
	Type      InsightType
	Direction Direction

	Magnitude  *float64
	Confidence *float64
	Weight     *float64

	ReferenceValue      float64
	ReferenceValueFinal float64
	EstimatedValue      float64

	Score Score

	spec *periodSpec
}

// InsightOption sets optional prediction payload on a new insight.
type InsightOption func(*Insight)

func WithMagnitude(m float64) InsightOption {
	return func(i *Insight) { i.Magnitude = &m }
}

func WithConfidence(c float64) InsightOption {
	return func(i *Insight) { i.Confidence = &c }
}

func WithWeight(w float64) InsightOption {
	return func(i *Insight) { i.Weight = &w }
}

func WithSourceModel(model string) InsightOption {
	return func(i *Insight) { i.SourceModel = model }
}

func WithTag(tag string) InsightOption {
	return func(i *Insight) { i.Tag = tag }
}

func WithSource(src InsightSource) InsightOption {
	return func(i *Insight) { i.Source = src }
}

// New creates an insight valid for the given period. A period of MaxPeriod
// or more builds an open-ended insight.
func New(symbol Symbol, typ InsightType, direction Direction, period time.Duration, opts ...InsightOption) (*Insight, error) {
	if period >= MaxPeriod {
		return newInsight(symbol, typ, direction, newOpenEndedSpec(), opts), nil
	}
	if period < time.Second {
		return nil, fmt.Errorf("%w: insight period must be at least one second, got %s", ErrInvalidArgument, period)
	}
	return newInsight(symbol, typ, direction, newFixedDurationSpec(period), opts), nil
}

// NewAtResolution creates an insight valid for barCount bars of res.
func NewAtResolution(symbol Symbol, typ InsightType, direction Direction, res Resolution, barCount int, opts ...InsightOption) (*Insight, error) {
	if barCount < 1 {
		return nil, fmt.Errorf("%w: insight bar count must be at least 1, got %d", ErrInvalidArgument, barCount)
	}
	return newInsight(symbol, typ, direction, newBarCountSpec(res, barCount), opts), nil
}

// NewWithCloseTime creates an insight valid until closeTimeLocal, read as
// wall-clock time in the instrument's market zone. A close at or past
// EndOfTime builds an open-ended insight.
func NewWithCloseTime(symbol Symbol, typ InsightType, direction Direction, closeTimeLocal time.Time, opts ...InsightOption) (*Insight, error) {
	if closeTimeLocal.Year() >= EndOfTime.Year() {
		return newInsight(symbol, typ, direction, newOpenEndedSpec(), opts), nil
	}
	return newInsight(symbol, typ, direction, newFixedCloseTimeSpec(closeTimeLocal), opts), nil
}

// NewWithExpiry creates an insight valid until the rule's local close time,
// snapped to the next market open if the market is closed then.
func NewWithExpiry(symbol Symbol, typ InsightType, direction Direction, expiry ExpiryFunc, opts ...InsightOption) (*Insight, error) {
	if expiry == nil {
		return nil, fmt.Errorf("%w: expiry function is required", ErrInvalidArgument)
	}
	return newInsight(symbol, typ, direction, newExpirySpec(expiry), opts), nil
}

// Price predicts the direction of the instrument's price over period.
func Price(symbol Symbol, period time.Duration, direction Direction, opts ...InsightOption) (*Insight, error) {
	return New(symbol, TypePrice, direction, period, opts...)
}

// PriceAtResolution predicts price direction over barCount bars of res.
func PriceAtResolution(symbol Symbol, res Resolution, barCount int, direction Direction, opts ...InsightOption) (*Insight, error) {
	return NewAtResolution(symbol, TypePrice, direction, res, barCount, opts...)
}

// PriceWithCloseTime predicts price direction until closeTimeLocal.
func PriceWithCloseTime(symbol Symbol, closeTimeLocal time.Time, direction Direction, opts ...InsightOption) (*Insight, error) {
	return NewWithCloseTime(symbol, TypePrice, direction, closeTimeLocal, opts...)
}

// PriceWithExpiry predicts price direction until the rule's local close
// time, snapped to the next market open if the market is closed then.
func PriceWithExpiry(symbol Symbol, expiry ExpiryFunc, direction Direction, opts ...InsightOption) (*Insight, error) {
	return NewWithExpiry(symbol, TypePrice, direction, expiry, opts...)
}

// Volatility predicts the instrument's volatility over period.
func Volatility(symbol Symbol, period time.Duration, direction Direction, opts ...InsightOption) (*Insight, error) {
	return New(symbol, TypeVolatility, direction, period, opts...)
}

func newInsight(symbol Symbol, typ InsightType, direction Direction, spec *periodSpec, opts []InsightOption) *Insight {
	ins := &Insight{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		Type:      typ,
		Direction: direction,
		Source:    SourceLive,
		spec:      spec,
	}
	for _, opt := range opts {
		opt(ins)
	}
	switch spec.kind {
	case specFixedDuration:
		// the duration variant is known up front; the close time still
		// waits for a calendar
		ins.Period = spec.duration
	case specOpenEnded:
		ins.Period = MaxPeriod
		ins.CloseTimeUTC = EndOfTime
	}
	return ins
}

// SetPeriodAndCloseTime resolves the validity window against the market's
// calendar. GeneratedUTC must be set first. Idempotent for identical
// inputs; on error the entity is left unchanged.
func (i *Insight) SetPeriodAndCloseTime(hours MarketHours) error {
	if i.spec == nil {
		return fmt.Errorf("%w: insight has no period specification", ErrInvalidState)
	}
	return i.spec.resolve(i, hours)
}

// IsExpired reports whether the validity window has closed as of nowUTC.
func (i *Insight) IsExpired(nowUTC time.Time) bool {
	return i.CloseTimeUTC.Before(nowUTC)
}

// IsActive reports whether the insight is inside its validity window.
func (i *Insight) IsActive(nowUTC time.Time) bool {
	return !i.IsExpired(nowUTC)
}

// IsOpenEnded reports whether the insight carries the open-ended sentinels.
func (i *Insight) IsOpenEnded() bool {
	return i.Period >= MaxPeriod || !i.CloseTimeUTC.Before(EndOfTime)
}

// Expire closes the validity window just before nowUTC if it is still open.
func (i *Insight) Expire(nowUTC time.Time) {
	if i.IsExpired(nowUTC) {
		return
	}
	i.CloseTimeUTC = nowUTC.Add(-time.Nanosecond)
	if i.CloseTimeUTC.Before(i.GeneratedUTC) {
		i.CloseTimeUTC = i.GeneratedUTC
	}
	i.Period = i.CloseTimeUTC.Sub(i.GeneratedUTC)
}

// Cancel withdraws the prediction, closing its window immediately.
func (i *Insight) Cancel(nowUTC time.Time) { i.Expire(nowUTC) }

// Clone returns a snapshot with identical observable field values. Identity
// fields are copied, not regenerated; optional payload and score state are
// deep copies, so mutations on the clone stay on the clone.
func (i *Insight) Clone() *Insight {
	c := *i
	c.Magnitude = copyFloat(i.Magnitude)
	c.Confidence = copyFloat(i.Confidence)
	c.Weight = copyFloat(i.Weight)
	return &c
}

// Group assigns one freshly generated group id to every insight in the set.
// If any insight is already grouped it fails without modifying any of them.
func Group(insights ...*Insight) error {
	if len(insights) == 0 {
		return fmt.Errorf("%w: at least one insight is required to form a group", ErrInvalidArgument)
	}
	for _, ins := range insights {
		if ins.GroupID != "" {
			return fmt.Errorf("%w: insight %s already belongs to group %s", ErrAlreadyGrouped, ins.ID, ins.GroupID)
		}
	}
	gid := uuid.NewString()
	for _, ins := range insights {
		ins.GroupID = gid
	}
	return nil
}

// String renders a one-line human readable summary.
func (i *Insight) String() string {
	s := fmt.Sprintf("%s: %s %s %s", shortID(i.ID), i.Symbol.Ticker, i.Type, i.Direction)
	if i.Magnitude != nil {
		s += fmt.Sprintf(" by %g%%", *i.Magnitude)
	}
	if i.Confidence != nil {
		s += fmt.Sprintf(" with %g%% confidence", *i.Confidence*100)
	}
	if i.IsOpenEnded() {
		s += ", open ended"
	} else if i.Period > 0 {
		s += fmt.Sprintf(" over %s", i.Period)
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
