package commands

import (
	"context"

	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/clock"

	"github.com/rs/zerolog"
)

// CreateOrderCommandHandler creates orders in the Initialized stage.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, clock.System(), logger)
//	details, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	fmt.Println(details.Number) // ORD-20260314-9F3A61C2
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	clock      clock.Clock
	logger     zerolog.Logger
}

// NewCreateOrderCommandHandler creates a handler for order creation.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, clk clock.Clock, logger zerolog.Logger) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		clock:      clk,
		logger:     logger.With().Str("component", "create_order").Logger(),
	}
}

// Handle builds the aggregate, generates its number and persists it in one transaction.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (views.OrderDetails, error) {
	if err := cmd.Validate(); err != nil {
		return views.OrderDetails{}, err
	}

	now := h.clock.Now()
	o, err := order.NewOrder(
		kernel.NewUUID(),
		order.NewNumber(now),
		cmd.CustomerID(),
		cmd.Address(),
		cmd.Lines(),
		cmd.Metadata(),
		now,
	)
	if err != nil {
		return views.OrderDetails{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return views.OrderDetails{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Save(ctx, o); err != nil {
		return views.OrderDetails{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return views.OrderDetails{}, err
	}

	h.logger.Info().
		Str("order_id", o.ID().String()).
		Str("number", o.Number()).
		Int("lines", len(o.Lines())).
		Msg("order created")

	return views.FromOrder(o), nil
}
