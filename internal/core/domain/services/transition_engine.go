package services

import (
	"context"
	"fmt"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/clock"
	"fulfillment/internal/pkg/errs"
)

// TransitionEngine is the only component that changes an order's status.
//
// A transition runs in three steps:
//   - the requested status is checked against the transition table
//   - the stage action bound to the target status runs
//   - a stage record is appended to the order
//
// A failure in any step leaves the order untouched. Persisting the order is the
// caller's job, inside the same unit of work the stage action used.
type TransitionEngine struct {
	registry *StageActionRegistry
	clock    clock.Clock
}

// NewTransitionEngine creates an engine. Both dependencies are required.
func NewTransitionEngine(registry *StageActionRegistry, clk clock.Clock) (*TransitionEngine, error) {
	if registry == nil {
		return nil, errs.NewValueIsRequiredError("registry")
	}
	if clk == nil {
		return nil, errs.NewValueIsRequiredError("clock")
	}
	return &TransitionEngine{registry: registry, clock: clk}, nil
}

// Transition moves o to target.
//
// Returns:
//   - *order.InvalidTransitionError if target is not reachable from o.Status()
//   - *MissingStageHandlerError if no action is bound to target
//   - the stage action's error, for example an *AllocationError when stock is short
//
// Example:
//
//	err := engine.Transition(ctx, o, order.Picking, services.StageContext{Actor: "warehouse", Stock: allocator})
//	if errors.Is(err, inventory.ErrInsufficientStock) {
//	    // o is still PaymentConfirmed
//	}
func (e *TransitionEngine) Transition(ctx context.Context, o *order.Order, target order.Status, sc StageContext) error {
	if err := o.Validate(); err != nil {
		return err
	}

	tr, err := order.NewTransition(o.Status(), target)
	if err != nil {
		return err
	}

	action, err := e.registry.Lookup(target)
	if err != nil {
		return err
	}

	if err := action.Execute(ctx, o, sc); err != nil {
		return fmt.Errorf("%s on entering %s: %w", action.Name(), target, err)
	}

	// The clock may lag the last record (restored history, clock skew); never go back.
	at := e.clock.Now()
	if last := o.LastStage().EnteredAt(); at.Before(last) {
		at = last
	}

	record, err := order.NewStageRecord(target, at, sc.Actor, sc.Note)
	if err != nil {
		return err
	}

	return o.AppendStage(tr, record)
}

// NextStatuses returns the statuses reachable from current. It has no side effects.
func (e *TransitionEngine) NextStatuses(current order.Status) []order.Status {
	return current.NextStatuses()
}
