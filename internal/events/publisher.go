package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// Sender abstracts the message transport so tests can capture published
// events without a broker.
type Sender interface {
	Send(ctx context.Context, key []byte, value []byte) error
}

// KafkaSender publishes to a Kafka topic.
type KafkaSender struct {
	writer *kafka.Writer
}

// NewKafkaSender creates a sender for the given brokers and topic. Events
// are keyed by facility so each facility's feed stays ordered within a
// partition.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Send writes one message to the topic.
func (s *KafkaSender) Send(ctx context.Context, key, value []byte) error {
	return s.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

// Close flushes and closes the underlying writer.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}

// Publisher serializes change events onto a single worker goroutine so the
// feed preserves write order even when handlers publish concurrently.
type Publisher struct {
	jobs   chan ChangeEvent
	sender Sender
}

// NewPublisher creates a publisher with a buffered dispatch queue.
func NewPublisher(sender Sender, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Publisher{
		jobs:   make(chan ChangeEvent, queueSize),
		sender: sender,
	}
}

// Start launches the publish worker.
func (p *Publisher) Start(ctx context.Context) {
	go p.worker(ctx)
}

func (p *Publisher) worker(ctx context.Context) {
	for {
		select {
		case ev := <-p.jobs:
			p.publish(ctx, ev)
		case <-ctx.Done():
			log.Println("Event publisher shutting down")
			return
		}
	}
}

// Dispatch enqueues a change event for publication. If the queue is full
// the event is dropped with a log line; consumers recover via their next
// refetch, so a dropped event costs staleness, not correctness.
func (p *Publisher) Dispatch(ev ChangeEvent) {
	select {
	case p.jobs <- ev:
	default:
		log.Printf("Event queue full, dropping %s event", ev.Type)
	}
}

func (p *Publisher) publish(ctx context.Context, ev ChangeEvent) {
	facilityID, _, ok := ev.Key()
	if !ok {
		log.Printf("Skipping %s event with no record", ev.Type)
		return
	}

	value, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error marshalling %s event: %v", ev.Type, err)
		return
	}

	if err := p.sender.Send(ctx, []byte(facilityID), value); err != nil {
		log.Printf("Error publishing %s event for facility %s: %v", ev.Type, facilityID, err)
	}
}
