package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AlphaPull/internal/domain/models"
	drepo "AlphaPull/internal/domain/repository"
)

// InsightProcessor routes resolved insights to the configured backend.
type InsightProcessor struct {
	pub     drepo.Publisher
	store   drepo.InsightStore
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewInsightProcessor creates a new InsightProcessor instance.
func NewInsightProcessor(
	pub drepo.Publisher,
	store drepo.InsightStore,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *InsightProcessor {
	return &InsightProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single insight to the configured backend. The "both"
// backend publishes and stores; one side failing does not skip the other.
func (p *InsightProcessor) Process(ctx context.Context, ins *models.Insight) error {
	if ins == nil {
		return fmt.Errorf("insight is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, ins)
	case "clickhouse":
		err = p.store.Store(ctx, ins)
	case "both":
		err = errors.Join(p.pub.Publish(ctx, ins), p.store.Store(ctx, ins))
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process insight: %w", err)
	}

	p.metrics.RecordInsightPublished(p.backend, ins.Symbol.ID)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple insights in a batch, splitting when the
// batch exceeds the configured size.
func (p *InsightProcessor) ProcessBatch(ctx context.Context, batch []*models.Insight) error {
	if len(batch) == 0 {
		return nil
	}
	if p.batchSz > 0 && len(batch) > p.batchSz {
		for lo := 0; lo < len(batch); lo += p.batchSz {
			hi := lo + p.batchSz
			if hi > len(batch) {
				hi = len(batch)
			}
			if err := p.flushBatch(ctx, batch[lo:hi]); err != nil {
				return err
			}
		}
		return nil
	}
	return p.flushBatch(ctx, batch)
}

func (p *InsightProcessor) flushBatch(ctx context.Context, batch []*models.Insight) error {
	if p.batchTO > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.batchTO)
		defer cancel()
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, batch)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, batch)
	case "both":
		err = errors.Join(p.pub.PublishBatch(ctx, batch), p.store.StoreBatch(ctx, batch))
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, ins := range batch {
		p.metrics.RecordInsightPublished(p.backend, ins.Symbol.ID)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *InsightProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
