package commands

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/clock"

	"github.com/rs/zerolog"
)

// ExpiryActor is recorded on stages entered by payment expiry.
const ExpiryActor = "system:payment-expiry"

// OrderAdvancer applies a single transition. *AdvanceOrderStatusCommandHandler implements it.
type OrderAdvancer interface {
	Handle(ctx context.Context, cmd AdvanceOrderStatusCommand) (views.OrderDetails, error)
}

// ExpireUnpaidOrdersCommandHandler cancels orders stuck in AwaitingPayment.
// Each cancellation is its own transition, so one failing order does not block the rest.
type ExpireUnpaidOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	advancer   OrderAdvancer
	clock      clock.Clock
	logger     zerolog.Logger
}

func NewExpireUnpaidOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	advancer OrderAdvancer,
	clk clock.Clock,
	logger zerolog.Logger,
) ExpireUnpaidOrdersCommandHandler {
	return ExpireUnpaidOrdersCommandHandler{
		uowFactory: uowFactory,
		advancer:   advancer,
		clock:      clk,
		logger:     logger.With().Str("component", "payment_expiry").Logger(),
	}
}

// Handle returns how many orders were cancelled. Every cancellation only applies while the
// order is still in the AwaitingPayment stage found by the scan, so orders paid or re-entered
// in the meantime are skipped silently. Other failures are joined into the returned error.
func (h *ExpireUnpaidOrdersCommandHandler) Handle(ctx context.Context, cmd ExpireUnpaidOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	cutoff := h.clock.Now().Add(-cmd.TTL())
	ids, err := h.uowFactory.Create().OrderRepository().FindStaleInStatus(ctx, order.AwaitingPayment, cutoff, cmd.Limit())
	if err != nil {
		return 0, err
	}

	note := fmt.Sprintf("payment not received within %s", cmd.TTL())
	cancelled := 0
	var failures []error
	for _, id := range ids {
		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}

		advance, err := NewAdvanceOrderStatusCommand(id, order.Cancelled, ExpiryActor, note, nil)
		if err == nil {
			advance, err = advance.ExpectingStage(order.AwaitingPayment, cutoff)
		}
		if err != nil {
			failures = append(failures, err)
			continue
		}

		_, err = h.advancer.Handle(ctx, advance)
		switch {
		case err == nil:
			cancelled++
		case errors.Is(err, ErrStageChanged), errors.Is(err, order.ErrInvalidTransition):
			h.logger.Debug().Err(err).Str("order_id", id.String()).Msg("order left AwaitingPayment before expiry")
		default:
			failures = append(failures, fmt.Errorf("expire order %s: %w", id, err))
		}
	}

	if cancelled > 0 || len(failures) > 0 {
		h.logger.Info().Int("cancelled", cancelled).Int("failed", len(failures)).Msg("unpaid orders expired")
	}
	return cancelled, errors.Join(failures...)
}
