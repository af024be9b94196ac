package repository

import (
	"context"
	"time"

	"AlphaPull/internal/domain/models"
)

// ValuationSource provides read access to the market values insights are
// scored against.
type ValuationSource interface {
	ValueAt(ctx context.Context, symbol models.Symbol, at time.Time) (float64, error)
	LatestValue(ctx context.Context, symbol models.Symbol) (float64, error)
}
