package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"catering-be/internal/logger"
	"catering-be/internal/order"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const producerName = "catering-api"

// Publisher announces committed orders and releases its connections on Close.
type Publisher interface {
	order.EventPublisher
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w        messageWriter
	producer string
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers are
// configured.
func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		producer: producerName,
	}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, o order.Order) error {
	env, err := NewOrderPlaced(ctx, p.producer, o)
	if err != nil {
		return err
	}

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   PartitionKey(o.ID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", env.EventType, err)
	}

	logger.FromCtx(ctx).Debug("event published",
		zap.String("layer", "event"),
		zap.String("event_type", env.EventType),
		zap.String("event_id", env.EventID),
		zap.Int64("order_id", o.ID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, order.Order) error { return nil }
func (NoopPublisher) Close() error                                          { return nil }
