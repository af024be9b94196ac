package usecase

import (
	"context"
	"encoding/json"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	pkgkafka "AlphaPull/pkg/kafka"
)

// KafkaInsightsHandler consumes insight records from Kafka and writes them
// to storage. It closes the loop for deployments that publish to Kafka and
// persist from a separate consumer.
type KafkaInsightsHandler struct {
	topic   string
	store   domrepo.InsightStore
	metrics domrepo.Metrics
}

func NewKafkaInsightsHandler(topic string, store domrepo.InsightStore, metrics domrepo.Metrics) *KafkaInsightsHandler {
	return &KafkaInsightsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaInsightsHandler) Topic() string { return h.topic }

// Handle decodes one published insight record and stores it.
func (h *KafkaInsightsHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.InsightRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	ins, err := models.FromRecord(rec)
	if err != nil {
		h.metrics.RecordError("consumer_decode")
		return err
	}

	// E2E latency from generation time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ins.GeneratedUTC).Seconds())

	start := time.Now()
	err = h.store.Store(ctx, ins)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordInsightPublished("clickhouse", ins.Symbol.ID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaInsightsHandler)(nil)
