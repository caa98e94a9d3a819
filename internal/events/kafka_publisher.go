package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/sales-savvy/internal/config"
	"github.com/aaravmahajanofficial/sales-savvy/internal/models"
	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event_type"

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(cfg *config.Kafka) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}

	return newKafkaPublisher(w)
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish writes one event keyed by user id, so a user's events keep their order.
func (p *KafkaPublisher) Publish(ctx context.Context, event models.CartEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cart event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.CartEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
