// Package kafka provides a Kafka-backed eventstream publisher over
// segmentio/kafka-go. Events are keyed by sitting id so per-sitting
// ordering survives partitioning.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/openhemicycle/hemicycle/pkg/eventstream"
)

// Publisher writes sitting events to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a Kafka publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// PublishSittingIngested marshals the event and writes it keyed by sitting id.
func (p *Publisher) PublishSittingIngested(ctx context.Context, event *eventstream.SittingIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sitting event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.SittingID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write sitting event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
