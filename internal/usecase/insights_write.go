package usecase

import (
	"context"
	"fmt"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	"AlphaPull/internal/service/hours"
)

// InsightWriteUseCase creates, resolves, and persists insights submitted
// through the API, and groups previously stored ones.
type InsightWriteUseCase struct {
	store     domrepo.InsightStore
	proc      *InsightProcessor
	calendar  *hours.Registry
	valuation domrepo.ValuationSource // optional
	metrics   domrepo.Metrics
}

func NewInsightWriteUseCase(store domrepo.InsightStore, proc *InsightProcessor, calendar *hours.Registry, valuation domrepo.ValuationSource, metrics domrepo.Metrics) *InsightWriteUseCase {
	return &InsightWriteUseCase{store: store, proc: proc, calendar: calendar, valuation: valuation, metrics: metrics}
}

// CreateInsightParams carries one prediction with exactly one validity
// specification: a fixed period, a bar count at a resolution, a local close
// time, or a named expiry rule.
type CreateInsightParams struct {
	Symbol    string
	Market    string
	Type      string
	Direction string

	Magnitude  *float64
	Confidence *float64
	Weight     *float64

	SourceModel string
	Source      string
	Tag         string

	PeriodSeconds  float64
	Resolution     string
	BarCount       int
	CloseTimeLocal time.Time
	ExpiryRule     string

	GeneratedUTC time.Time // zero means now
}

func (p CreateInsightParams) specCount() int {
	n := 0
	if p.PeriodSeconds > 0 {
		n++
	}
	if p.Resolution != "" || p.BarCount > 0 {
		n++
	}
	if !p.CloseTimeLocal.IsZero() {
		n++
	}
	if p.ExpiryRule != "" {
		n++
	}
	return n
}

// Create builds the insight, resolves its window against the market
// calendar, stamps the current reference value, and routes it to the
// configured backend.
func (uc *InsightWriteUseCase) Create(ctx context.Context, p CreateInsightParams) (*models.Insight, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", models.ErrInvalidArgument)
	}
	if p.specCount() != 1 {
		return nil, fmt.Errorf("%w: exactly one validity specification required", models.ErrInvalidArgument)
	}

	direction, err := models.ParseDirection(p.Direction)
	if err != nil {
		return nil, err
	}
	typ := models.TypePrice
	if p.Type != "" {
		if typ, err = models.ParseInsightType(p.Type); err != nil {
			return nil, err
		}
	}
	source, err := models.ParseInsightSource(p.Source)
	if err != nil {
		return nil, err
	}

	opts := []models.InsightOption{models.WithSource(source)}
	if p.SourceModel != "" {
		opts = append(opts, models.WithSourceModel(p.SourceModel))
	}
	if p.Tag != "" {
		opts = append(opts, models.WithTag(p.Tag))
	}
	if p.Magnitude != nil {
		opts = append(opts, models.WithMagnitude(*p.Magnitude))
	}
	if p.Confidence != nil {
		opts = append(opts, models.WithConfidence(*p.Confidence))
	}
	if p.Weight != nil {
		opts = append(opts, models.WithWeight(*p.Weight))
	}

	symbol := models.NewSymbol(p.Symbol, p.Market)
	ins, err := uc.build(symbol, typ, direction, p, opts)
	if err != nil {
		return nil, err
	}

	ins.GeneratedUTC = p.GeneratedUTC.UTC()
	if p.GeneratedUTC.IsZero() {
		ins.GeneratedUTC = time.Now().UTC()
	}
	if err := ins.SetPeriodAndCloseTime(uc.calendar.Get(symbol.Market)); err != nil {
		return nil, err
	}

	// best effort; a missing quote leaves the reference at zero
	if uc.valuation != nil {
		if v, err := uc.valuation.LatestValue(ctx, symbol); err == nil {
			ins.ReferenceValue = v
		}
	}

	if err := uc.proc.Process(ctx, ins); err != nil {
		return nil, err
	}
	return ins, nil
}

func (uc *InsightWriteUseCase) build(symbol models.Symbol, typ models.InsightType, direction models.Direction, p CreateInsightParams, opts []models.InsightOption) (*models.Insight, error) {
	switch {
	case p.PeriodSeconds > 0:
		period := time.Duration(p.PeriodSeconds * float64(time.Second))
		return models.New(symbol, typ, direction, period, opts...)
	case p.Resolution != "" || p.BarCount > 0:
		res := models.DefaultResolution()
		if p.Resolution != "" {
			var err error
			if res, err = models.ParseResolution(p.Resolution); err != nil {
				return nil, err
			}
		}
		return models.NewAtResolution(symbol, typ, direction, res, p.BarCount, opts...)
	case !p.CloseTimeLocal.IsZero():
		return models.NewWithCloseTime(symbol, typ, direction, p.CloseTimeLocal, opts...)
	default:
		expiry, err := models.ExpiryByName(p.ExpiryRule)
		if err != nil {
			return nil, err
		}
		return models.NewWithExpiry(symbol, typ, direction, expiry, opts...)
	}
}

// Group assigns a fresh group id to previously stored insights and
// persists the assignment. Any already grouped member fails the whole set.
func (uc *InsightWriteUseCase) Group(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: at least one insight id required", models.ErrInvalidArgument)
	}
	insights := make([]*models.Insight, 0, len(ids))
	for _, id := range ids {
		ins, err := uc.store.Get(ctx, id)
		if err != nil {
			return "", err
		}
		insights = append(insights, ins)
	}
	if err := models.Group(insights...); err != nil {
		return "", err
	}
	if err := uc.proc.ProcessBatch(ctx, insights); err != nil {
		return "", fmt.Errorf("persist group: %w", err)
	}
	return insights[0].GroupID, nil
}

// Cancel withdraws a stored insight, closing its window immediately.
func (uc *InsightWriteUseCase) Cancel(ctx context.Context, id string) (*models.Insight, error) {
	ins, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if ins.IsExpired(now) {
		return nil, fmt.Errorf("%w: insight %s already expired", models.ErrInvalidState, id)
	}
	ins.Cancel(now)
	if err := uc.proc.Process(ctx, ins); err != nil {
		return nil, fmt.Errorf("persist cancel: %w", err)
	}
	return ins, nil
}
