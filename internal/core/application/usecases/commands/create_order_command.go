package commands

import (
	"errors"
	"maps"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a request to place a new order.
//
// Example:
//
//	addr, _ := kernel.NewAddress("DE", "Berlin", "Invalidenstrasse", "117", "", "")
//	line, _ := order.NewLine("SKU-1", "Coffee beans", decimal.RequireFromString("19.90"), 2)
//	cmd, err := NewCreateOrderCommand(customerID, addr, []order.Line{line}, map[string]string{"channel": "web"})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	details, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	customerID kernel.UUID
	address    kernel.Address
	lines      []order.Line
	metadata   map[string]string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the customer, address and lines. Metadata may be nil.
func NewCreateOrderCommand(
	customerID kernel.UUID,
	address kernel.Address,
	lines []order.Line,
	metadata map[string]string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		metadata: maps.Clone(metadata),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCustomerID(customerID),
		cmd.setAddress(address),
		cmd.setLines(lines),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) CustomerID() kernel.UUID { return c.customerID }

func (c CreateOrderCommand) Address() kernel.Address { return c.address }

func (c CreateOrderCommand) Lines() []order.Line {
	lines := make([]order.Line, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func (c CreateOrderCommand) Metadata() map[string]string { return maps.Clone(c.metadata) }

func (c *CreateOrderCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return err
	}
	c.customerID = customerID
	return nil
}

func (c *CreateOrderCommand) setAddress(address kernel.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	c.address = address
	return nil
}

func (c *CreateOrderCommand) setLines(lines []order.Line) error {
	if len(lines) == 0 {
		return order.ErrNoLines
	}
	c.lines = make([]order.Line, len(lines))
	copy(c.lines, lines)
	return nil
}
