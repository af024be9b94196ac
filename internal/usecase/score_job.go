package usecase

import (
	"context"
	"fmt"

	"AlphaPull/internal/domain/models"
	"AlphaPull/pkg/queue"
)

// ScoreUpdateJobType is the queue message type for external score updates.
const ScoreUpdateJobType = "score.update"

// ScoreUpdatePayload is the queue wire form of a score update.
type ScoreUpdatePayload struct {
	InsightID           string   `json:"insight_id"`
	DirectionScore      float64  `json:"direction_score"`
	MagnitudeScore      float64  `json:"magnitude_score"`
	Final               bool     `json:"final"`
	ReferenceValueFinal *float64 `json:"reference_value_final,omitempty"`
	EstimatedValue      *float64 `json:"estimated_value,omitempty"`
}

// ScoreUpdateJob consumes queued score updates and applies them.
type ScoreUpdateJob struct {
	applier *ScoreApplier
}

func NewScoreUpdateJob(applier *ScoreApplier) *ScoreUpdateJob {
	return &ScoreUpdateJob{applier: applier}
}

func (j *ScoreUpdateJob) Name() string { return "score-update" }

func (j *ScoreUpdateJob) Type() string { return ScoreUpdateJobType }

func (j *ScoreUpdateJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ScoreUpdatePayload](payload)
	if err != nil {
		return fmt.Errorf("score update payload: %w", err)
	}
	upd := models.ScoreUpdate{
		DirectionScore:      p.DirectionScore,
		MagnitudeScore:      p.MagnitudeScore,
		Final:               p.Final,
		ReferenceValueFinal: p.ReferenceValueFinal,
		EstimatedValue:      p.EstimatedValue,
	}
	return j.applier.Apply(ctx, p.InsightID, upd)
}

var _ queue.Job = (*ScoreUpdateJob)(nil)
