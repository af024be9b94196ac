package usecase

import (
	"context"
	"fmt"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	domsvc "AlphaPull/internal/domain/service"
	"AlphaPull/pkg/cache"
	"AlphaPull/pkg/queue"
)

const scoreLockTTL = 5 * time.Second

// ScoreApplier lands external score updates on stored insights. A redis
// lock serializes concurrent updates to the same insight across replicas.
type ScoreApplier struct {
	store   domrepo.InsightStore
	locks   cache.Service // optional
	metrics domrepo.Metrics
}

func NewScoreApplier(store domrepo.InsightStore, locks cache.Service, metrics domrepo.Metrics) *ScoreApplier {
	return &ScoreApplier{store: store, locks: locks, metrics: metrics}
}

// Apply loads the insight, writes the update, and persists the result.
func (a *ScoreApplier) Apply(ctx context.Context, insightID string, upd models.ScoreUpdate) error {
	if insightID == "" {
		return fmt.Errorf("%w: insight id required", models.ErrInvalidArgument)
	}

	if a.locks != nil {
		key := cache.GenerateKey("score:lock", insightID)
		ok, err := a.locks.TryLock(ctx, key, scoreLockTTL)
		if err == nil && !ok {
			a.metrics.RecordError("score_lock_busy")
			return fmt.Errorf("insight %s: concurrent score update in flight", insightID)
		}
		if err == nil {
			defer func() { _ = a.locks.Unlock(ctx, key) }()
		}
		// lock errors degrade to unguarded apply
	}

	start := time.Now()
	ins, err := a.store.Get(ctx, insightID)
	if err != nil {
		a.metrics.RecordError("score_load")
		return err
	}
	if err := ins.ApplyScoreUpdate(upd, time.Now().UTC()); err != nil {
		a.metrics.RecordError("score_apply")
		return err
	}
	if err := a.store.UpdateScore(ctx, ins); err != nil {
		a.metrics.RecordError("score_persist")
		return fmt.Errorf("persist score %s: %w", insightID, err)
	}
	a.metrics.RecordLatency("score_apply", time.Since(start).Seconds())
	return nil
}

var _ domsvc.ScoreApplier = (*ScoreApplier)(nil)

// QueueingApplier defers score updates to the redis queue instead of
// applying them inline.
type QueueingApplier struct {
	q queue.QueueService
}

func NewQueueingApplier(q queue.QueueService) *QueueingApplier {
	return &QueueingApplier{q: q}
}

func (a *QueueingApplier) Apply(ctx context.Context, insightID string, upd models.ScoreUpdate) error {
	payload := ScoreUpdatePayload{
		InsightID:           insightID,
		DirectionScore:      upd.DirectionScore,
		MagnitudeScore:      upd.MagnitudeScore,
		Final:               upd.Final,
		ReferenceValueFinal: upd.ReferenceValueFinal,
		EstimatedValue:      upd.EstimatedValue,
	}
	if err := a.q.PublishMessage(ctx, ScoreUpdateJobType, payload); err != nil {
		return fmt.Errorf("enqueue score update %s: %w", insightID, err)
	}
	return nil
}

var _ domsvc.ScoreApplier = (*QueueingApplier)(nil)
