package events

import (
	"context"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"

	dErrors "docwatch/pkg/domain-errors"
)

// KafkaStore produces delivery events as JSON records. Records are keyed by
// document ID so all events for one document land on one partition in order.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore connects to the given brokers and verifies the connection.
func NewKafkaStore(ctx context.Context, brokers []string, topic string) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "create kafka client")
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "ping kafka brokers")
	}
	return &KafkaStore{client: client, topic: topic}, nil
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode delivery event")
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.DocumentID.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeStorage, "produce delivery event")
	}
	return nil
}

func (s *KafkaStore) Close() {
	s.client.Close()
}
