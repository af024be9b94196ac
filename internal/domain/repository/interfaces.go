package repository

import (
	"context"
	"time"

	"AlphaPull/internal/domain/models"
)

type InsightStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Insight, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, ins *models.Insight) error
	PublishBatch(ctx context.Context, insights []*models.Insight) error
	Close() error
}

type InsightStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, ins *models.Insight) error
	StoreBatch(ctx context.Context, insights []*models.Insight) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Insight, error)
	ActiveAt(ctx context.Context, at time.Time, symbol string, limit int) ([]*models.Insight, error)
	ByGroup(ctx context.Context, groupID string) ([]*models.Insight, error)
	Get(ctx context.Context, id string) (*models.Insight, error)
	PendingScore(ctx context.Context, asOf time.Time, limit int) ([]*models.Insight, error)
	UpdateScore(ctx context.Context, ins *models.Insight) error
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordInsightPublished(backend, symbol string)
	RecordError(kind string)
	RecordLastConfidence(symbol string, confidence float64)
	RecordLatency(op string, seconds float64)
}
