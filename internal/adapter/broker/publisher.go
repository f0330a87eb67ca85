package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// Publisher delivers stored order events to the message broker.
type Publisher interface {
	Enabled() bool
	Publish(ctx context.Context, record model.OutboxRecord) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements Publisher on top of kafka-go writer.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates publisher for brokers. An empty broker list yields
// a disabled publisher.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) *KafkaPublisher {
	if len(brokers) == 0 {
		return &KafkaPublisher{logger: logger}
	}
	return &KafkaPublisher{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Enabled reports whether brokers are configured.
func (p *KafkaPublisher) Enabled() bool {
	return p.writer != nil
}

// Publish writes record keyed by order id, so the hash balancer sends all
// events of one order to the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, record model.OutboxRecord) error {
	if !p.Enabled() {
		return ErrDisabled
	}
	msg := kafka.Message{
		Topic: record.Topic,
		Key:   []byte(record.Key),
		Value: record.Payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(record.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", record.EventID, err)
	}
	p.logger.Debug("event published", slog.String("event_id", record.EventID), slog.String("topic", record.Topic))
	return nil
}

// Close flushes pending writes.
func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
