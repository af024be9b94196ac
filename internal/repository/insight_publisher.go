package repository

import (
	"context"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
	pkgkafka "AlphaPull/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Messages are keyed by
// symbol so one symbol's insights stay on one partition, in order.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ins *models.Insight) error {
	return p.producer.Publish(ctx, p.topic, []byte(ins.Symbol.ID), ins.ToRecord())
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, insights []*models.Insight) error {
	if len(insights) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(insights))
	for i, ins := range insights {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(ins.Symbol.ID),
			Value: ins.ToRecord(),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
