package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"facility-booking-backend/internal/events"
)

// Stream is one open change-event feed. Next blocks until an event
// arrives, the context is cancelled, or the feed fails.
type Stream interface {
	Next(ctx context.Context) (events.ChangeEvent, error)
	Close() error
}

// StreamOpener opens a change feed, optionally scoped to one facility.
// An empty facilityID subscribes to all facilities.
type StreamOpener interface {
	Open(ctx context.Context, facilityID string) (Stream, error)
}

// KafkaStreamOpener opens feeds backed by a Kafka topic.
type KafkaStreamOpener struct {
	Brokers []string
	Topic   string
}

// Open starts a fresh consumer at the topic's tail. Each open feed gets
// its own group id: subscribers are independent fan-out readers, not a
// work-sharing group.
func (o *KafkaStreamOpener) Open(_ context.Context, facilityID string) (Stream, error) {
	if len(o.Brokers) == 0 {
		return nil, fmt.Errorf("no stream brokers configured")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     o.Brokers,
		Topic:       o.Topic,
		GroupID:     "engine-" + uuid.NewString(),
		StartOffset: kafka.LastOffset,
	})
	return &kafkaStream{reader: reader, facilityID: facilityID}, nil
}

type kafkaStream struct {
	reader     *kafka.Reader
	facilityID string
}

// Next reads messages until one matches the facility scope. Events are
// keyed by facility id, so scope filtering is a key comparison.
func (s *kafkaStream) Next(ctx context.Context) (events.ChangeEvent, error) {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			return events.ChangeEvent{}, err
		}
		if s.facilityID != "" && string(msg.Key) != s.facilityID {
			continue
		}

		var ev events.ChangeEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return events.ChangeEvent{}, fmt.Errorf("malformed change event: %w", err)
		}
		return ev, nil
	}
}

func (s *kafkaStream) Close() error {
	return s.reader.Close()
}
