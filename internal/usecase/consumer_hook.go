package usecase

import (
	"context"
	"time"

	domrepo "AlphaPull/internal/domain/repository"
	pkgkafka "AlphaPull/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

// ConsumerMetricsHook times consumed insight records end to end and counts
// handler failures. Trace ids from message headers are threaded into the
// handler context.
type ConsumerMetricsHook struct {
	metrics domrepo.Metrics
}

func NewConsumerMetricsHook(m domrepo.Metrics) ConsumerMetricsHook {
	return ConsumerMetricsHook{metrics: m}
}

func (h ConsumerMetricsHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	ctx = pkgkafka.WithStartTime(ctx, time.Now())
	ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
	return ctx, km, data, nil
}

func (h ConsumerMetricsHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if start, ok := pkgkafka.StartTimeFrom(ctx); ok {
		h.metrics.RecordLatency("consume_handle", time.Since(start).Seconds())
	}
}

func (h ConsumerMetricsHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	h.metrics.RecordError("consumer_handler")
}

var _ pkgkafka.ConsumerHook = ConsumerMetricsHook{}
