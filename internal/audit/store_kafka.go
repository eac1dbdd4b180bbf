package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"lingap/internal/platform/config"
	"lingap/pkg/platform/sentinel"
)

// KafkaStore publishes audit events to a Kafka topic as JSON. Downstream
// consumers (the excluded audit-log persistence collaborator) materialize
// events for querying; this core only appends.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore connects to the brokers and ensures the audit topic exists.
func NewKafkaStore(ctx context.Context, cfg config.KafkaConfig) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	// One partition is enough: audit volume is low and per-topic ordering
	// keeps the trail readable.
	if _, err := adm.CreateTopics(ctx, 1, 1, nil, cfg.Topic); err != nil {
		// Topic may already exist; the first produce surfaces real failures.
		_ = err
	}

	return &KafkaStore{client: client, topic: cfg.Topic}, nil
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ActorID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListRecent is served by the downstream consumer's materialized store,
// not from the topic.
func (s *KafkaStore) ListRecent(context.Context, int) ([]Event, error) {
	return nil, sentinel.ErrUnavailable
}

func (s *KafkaStore) Close() {
	s.client.Close()
}
