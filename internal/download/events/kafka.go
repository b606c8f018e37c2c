package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/luofilm/luofilm/pkg/idx"
)

// Writer settings. Publishes run on the request path, so a single message is
// flushed at once and a dead broker gives up after a few quick attempts.
const (
	publishBatchTimeout = 10 * time.Millisecond
	publishMaxAttempts  = 3
	publishWriteTimeout = 2 * time.Second
)

// KafkaPublisher writes events as JSON to a single topic, keyed by user id so
// one user's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchSize:              1,
			BatchTimeout:           publishBatchTimeout,
			MaxAttempts:            publishMaxAttempts,
			WriteTimeout:           publishWriteTimeout,
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message encodes e as the record KafkaPublisher writes.
func Message(e Event) (kafka.Message, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	e.OccurredAt = e.OccurredAt.UTC()
	if e.ID == "" {
		e.ID = idx.NewAt(e.OccurredAt).String()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.UserID),
		Value: payload,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}, nil
}
