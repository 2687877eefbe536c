// Package amqp consumes payment events from RabbitMQ and turns them into payment
// stage transitions.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	EventPaymentStarted   = "payment.started"
	EventPaymentConfirmed = "payment.confirmed"
	EventPaymentFailed    = "payment.failed"

	// DefaultActor is recorded when a payment event names no actor.
	DefaultActor = "payments"

	prefetch = 16
)

var ErrUnknownPaymentEvent = errors.New("unknown payment event")

// PaymentEvent is the message body published on the payment exchange.
type PaymentEvent struct {
	OrderID string `json:"orderId"`
	Event   string `json:"event"`
	Actor   string `json:"actor"`
	Note    string `json:"note"`
}

// Disposition tells the consume loop what to do with a delivery.
type Disposition int

const (
	Ack Disposition = iota
	Requeue
)

// TargetStatus maps a payment event name to the status it moves the order to.
func TargetStatus(event string) (order.Status, error) {
	switch event {
	case EventPaymentStarted:
		return order.PaymentProcessing, nil
	case EventPaymentConfirmed:
		return order.PaymentConfirmed, nil
	case EventPaymentFailed:
		return order.PaymentFailed, nil
	default:
		return order.Unknown, fmt.Errorf("%w: %q", ErrUnknownPaymentEvent, event)
	}
}

// PaymentConsumer applies payment events through the order advancer. Deliveries are
// acknowledged manually: only retryable failures go back to the queue.
type PaymentConsumer struct {
	advancer commands.OrderAdvancer
	logger   zerolog.Logger
}

func NewPaymentConsumer(advancer commands.OrderAdvancer, logger zerolog.Logger) (*PaymentConsumer, error) {
	if advancer == nil {
		return nil, errs.NewValueIsRequiredError("advancer")
	}
	return &PaymentConsumer{
		advancer: advancer,
		logger:   logger.With().Str("component", "payment_consumer").Logger(),
	}, nil
}

// Handle decodes one message body and advances the order.
func (c *PaymentConsumer) Handle(ctx context.Context, body []byte) Disposition {
	var event PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Error().Err(err).Bytes("body", body).Msg("dropping malformed payment event")
		return Ack
	}

	cmd, err := c.command(event)
	if err != nil {
		c.logger.Error().Err(err).Str("order_id", event.OrderID).Str("event", event.Event).
			Msg("dropping invalid payment event")
		return Ack
	}

	_, err = c.advancer.Handle(ctx, cmd)
	switch {
	case err == nil:
		return Ack
	case errs.IsRetryable(err) || ctx.Err() != nil:
		c.logger.Warn().Err(err).Str("order_id", event.OrderID).Str("event", event.Event).
			Msg("payment event requeued")
		return Requeue
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, errs.ErrObjectNotFound):
		c.logger.Warn().Err(err).Str("order_id", event.OrderID).Str("event", event.Event).
			Msg("payment event rejected")
		return Ack
	default:
		c.logger.Error().Err(err).Str("order_id", event.OrderID).Str("event", event.Event).
			Msg("payment event failed")
		return Ack
	}
}

func (c *PaymentConsumer) command(event PaymentEvent) (commands.AdvanceOrderStatusCommand, error) {
	orderID, err := kernel.UUIDFromString(event.OrderID)
	if err != nil {
		return commands.AdvanceOrderStatusCommand{}, err
	}
	target, err := TargetStatus(event.Event)
	if err != nil {
		return commands.AdvanceOrderStatusCommand{}, err
	}
	actor := event.Actor
	if actor == "" {
		actor = DefaultActor
	}
	return commands.NewAdvanceOrderStatusCommand(orderID, target, actor, event.Note, nil)
}

// Consume handles deliveries until ctx is done or the channel closes.
func (c *PaymentConsumer) Consume(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			var ackErr error
			if c.Handle(ctx, d.Body) == Requeue {
				ackErr = d.Nack(false, true)
			} else {
				ackErr = d.Ack(false)
			}
			if ackErr != nil {
				c.logger.Error().Err(ackErr).Uint64("delivery_tag", d.DeliveryTag).Msg("failed to settle delivery")
			}
		}
	}
}

// Subscribe declares a durable fanout exchange and a durable queue bound to it and
// starts consuming with manual acknowledgements.
func Subscribe(ch *amqp.Channel, exchange, queue string) (<-chan amqp.Delivery, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	// fanout ignores the routing key
	if err = ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s: %w", queue, err)
	}
	if err = ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set prefetch: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume queue %s: %w", queue, err)
	}
	return deliveries, nil
}
