package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter keys messages by order id so events of one order stay ordered.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

type KafkaPublisher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewKafkaPublisher(log *slog.Logger, producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{log: log, producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventType(), err)
	}

	id := uuid.NewString()
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(id)},
		{Key: HeaderEventType, Value: []byte(ev.EventType())},
	}
	headers = injectTrace(ctx, headers)

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(ev.Key()),
		Value:   payload,
		Headers: headers,
	}
	if err := p.producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", ev.EventType(), err)
	}

	p.log.Debug("event published", "event_id", id, "type", ev.EventType(), "key", ev.Key())
	return nil
}

func injectTrace(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
