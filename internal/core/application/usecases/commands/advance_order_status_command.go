package commands

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrAdvanceOrderStatusCommandIsNotConstructed = errors.New(
	"AdvanceOrderStatusCommand must be created via NewAdvanceOrderStatusCommand constructor",
)

// ErrStageChanged is returned when a command made with ExpectingStage finds the order in
// another stage, or in the expected one but entered too recently.
var ErrStageChanged = errors.New("order stage changed")

// AdvanceOrderStatusCommand requests moving an order to target.
//
// Parameters:
//   - orderID: the order to move
//   - target: the status to enter
//   - actor: who triggers the transition, recorded on the stage (may be empty)
//   - note: free text recorded on the stage (may be empty)
//   - payload: extra data handed to the stage action (may be nil)
//
// Example:
//
//	cmd, err := NewAdvanceOrderStatusCommand(orderID, order.Picking, "warehouse", "wave 7", nil)
type AdvanceOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID       kernel.UUID
	target        order.Status
	actor         string
	note          string
	payload       map[string]string
	expected      order.Status
	enteredBefore time.Time

	guard guard.ConstructorGuard
}

func NewAdvanceOrderStatusCommand(
	orderID kernel.UUID,
	target order.Status,
	actor, note string,
	payload map[string]string,
) (AdvanceOrderStatusCommand, error) {
	cmd := AdvanceOrderStatusCommand{
		actor:   strings.TrimSpace(actor),
		note:    strings.TrimSpace(note),
		payload: maps.Clone(payload),
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTarget(target),
	); err != nil {
		return AdvanceOrderStatusCommand{}, err
	}

	return cmd, nil
}

func (c AdvanceOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceOrderStatusCommandIsNotConstructed)
}

func (c AdvanceOrderStatusCommand) OrderID() kernel.UUID { return c.orderID }

func (c AdvanceOrderStatusCommand) Target() order.Status { return c.target }

func (c AdvanceOrderStatusCommand) Actor() string { return c.actor }

func (c AdvanceOrderStatusCommand) Note() string { return c.note }

func (c AdvanceOrderStatusCommand) Payload() map[string]string { return maps.Clone(c.payload) }

// ExpectingStage returns a copy of the command that only applies while the order is in
// status and entered it before enteredBefore. A zero enteredBefore skips the time check.
func (c AdvanceOrderStatusCommand) ExpectingStage(
	status order.Status,
	enteredBefore time.Time,
) (AdvanceOrderStatusCommand, error) {
	if err := c.Validate(); err != nil {
		return AdvanceOrderStatusCommand{}, err
	}
	if err := status.Validate(); err != nil {
		return AdvanceOrderStatusCommand{}, err
	}
	c.expected = status
	c.enteredBefore = enteredBefore
	return c, nil
}

// ExpectedStatus is order.Unknown unless the command was narrowed with ExpectingStage.
func (c AdvanceOrderStatusCommand) ExpectedStatus() order.Status { return c.expected }

func (c AdvanceOrderStatusCommand) EnteredBefore() time.Time { return c.enteredBefore }

// checkStage verifies the ExpectingStage precondition against the locked order.
func (c AdvanceOrderStatusCommand) checkStage(o *order.Order) error {
	if c.expected == order.Unknown {
		return nil
	}
	if o.Status() != c.expected {
		return fmt.Errorf("%w: expected %s, found %s", ErrStageChanged, c.expected, o.Status())
	}
	entered := o.LastStage().EnteredAt()
	if !c.enteredBefore.IsZero() && !entered.Before(c.enteredBefore) {
		return fmt.Errorf("%w: %s entered at %s, not before %s", ErrStageChanged, c.expected,
			entered.Format(time.RFC3339Nano), c.enteredBefore.Format(time.RFC3339Nano))
	}
	return nil
}

func (c *AdvanceOrderStatusCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *AdvanceOrderStatusCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	c.target = target
	return nil
}
