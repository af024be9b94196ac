package service

import (
	"context"

	"AlphaPull/internal/domain/models"
)

// ScoreSource supplies externally computed scores for stored predictions.
// The service never grades its own insights; it asks a collaborator.
type ScoreSource interface {
	FetchScore(ctx context.Context, ins *models.Insight) (models.ScoreUpdate, error)
}

// ScoreApplier lands externally supplied score updates on stored insights.
type ScoreApplier interface {
	Apply(ctx context.Context, insightID string, upd models.ScoreUpdate) error
}
