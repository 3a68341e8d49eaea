// Package kafka streams alert decisions to a Kafka topic for downstream
// audit and monitoring consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/powderline/snowfall-alert-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces decision messages to a Kafka topic.
// It implements engine.DecisionPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the decision topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishDecisions serializes and publishes a full cycle's decisions in a
// single WriteMessages call. Messages are keyed by location so per-location
// ordering survives partitioning.
func (w *Writer) PublishDecisions(ctx context.Context, decisions []domain.AlertDecision) error {
	if len(decisions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(decisions))
	for i := range decisions {
		msg, err := serializeToMessage(decisions[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AlertDecision into a Kafka message.
func serializeToMessage(decision domain.AlertDecision) (kafkago.Message, error) {
	data, err := json.Marshal(decision)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert decision: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(decision.LocationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tier", Value: []byte(decision.Tier.String())},
			{Key: "cycle_id", Value: []byte(decision.CycleID)},
		},
	}, nil
}
