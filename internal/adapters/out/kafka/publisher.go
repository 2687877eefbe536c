// Package kafka publishes order stage events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/order"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewWriter creates a writer that hashes message keys so events of one order land on
// one partition and keep their order.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StageEventMessage is the JSON value of a published event.
type StageEventMessage struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Actor       string    `json:"actor"`
	Note        string    `json:"note,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// StageEventPublisher implements ports.EventPublisher on top of a Kafka writer.
type StageEventPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewStageEventPublisher wraps writer. Use NewWriter for a real broker connection.
func NewStageEventPublisher(writer messageWriter, logger zerolog.Logger) *StageEventPublisher {
	return &StageEventPublisher{
		writer: writer,
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish writes event keyed by order id.
func (p *StageEventPublisher) Publish(ctx context.Context, event order.StageEntered) error {
	data, err := json.Marshal(StageEventMessage{
		OrderID:     event.OrderID.String(),
		OrderNumber: event.OrderNumber,
		From:        event.From.String(),
		To:          event.To.String(),
		Actor:       event.Actor,
		Note:        event.Note,
		OccurredAt:  event.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode stage event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID.String()),
		Value: data,
		Time:  event.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish stage event of order %s: %w", event.OrderID, err)
	}

	p.logger.Debug().
		Str("order_id", event.OrderID.String()).
		Str("to", event.To.String()).
		Msg("stage event published")
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *StageEventPublisher) Close() error {
	return p.writer.Close()
}
