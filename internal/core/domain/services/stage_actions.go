package services

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// ErrStockAllocatorRequired is returned by stock actions run without a StockAllocator.
var ErrStockAllocatorRequired = errors.New("stage action requires a stock allocator")

// StockAllocator is the part of ReservationAllocator the stock actions depend on.
type StockAllocator interface {
	ReserveForOrder(ctx context.Context, o *order.Order) (inventory.Reservation, error)
	ReleaseForOrder(ctx context.Context, orderID kernel.UUID) (bool, error)
}

// StageContext carries the request data a stage action may need.
type StageContext struct {
	Actor   string
	Note    string
	Payload map[string]string
	Stock   StockAllocator
}

// StageAction is the side effect run when an order enters a status. The set of
// variants is closed: NoOpAction, ReserveStockAction and ReleaseStockAction.
//
// Execute runs before the stage record is appended, so o.Status() is still the status
// being left. An action must not mutate the order.
type StageAction interface {
	Execute(ctx context.Context, o *order.Order, sc StageContext) error
	Name() string

	stageAction()
}

// NoOpAction is the explicit placeholder for statuses without side effects.
type NoOpAction struct{}

func (NoOpAction) Execute(context.Context, *order.Order, StageContext) error { return nil }
func (NoOpAction) Name() string                                             { return "noop" }
func (NoOpAction) stageAction()                                             {}

// ReserveStockAction reserves stock for every line of the order. Any allocation failure
// fails the transition.
type ReserveStockAction struct{}

func (ReserveStockAction) Execute(ctx context.Context, o *order.Order, sc StageContext) error {
	if sc.Stock == nil {
		return ErrStockAllocatorRequired
	}
	_, err := sc.Stock.ReserveForOrder(ctx, o)
	return err
}

func (ReserveStockAction) Name() string { return "reserve_stock" }
func (ReserveStockAction) stageAction() {}

// ReleaseStockAction returns reserved stock when an order that may hold a reservation
// is cancelled. From statuses before Picking it does nothing.
type ReleaseStockAction struct{}

func (ReleaseStockAction) Execute(ctx context.Context, o *order.Order, sc StageContext) error {
	if !o.Status().HoldsReservation() {
		return nil
	}
	if sc.Stock == nil {
		return ErrStockAllocatorRequired
	}
	_, err := sc.Stock.ReleaseForOrder(ctx, o.ID())
	return err
}

func (ReleaseStockAction) Name() string { return "release_stock" }
func (ReleaseStockAction) stageAction() {}
