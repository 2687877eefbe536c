package http

import (
	"fmt"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/generated/servers"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

func toCreateOrderCommand(body servers.NewOrder) (commands.CreateOrderCommand, error) {
	customerID, err := kernel.UUIDFromBytes(body.CustomerId[:])
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}

	address, err := kernel.NewAddress(
		body.Address.Country,
		body.Address.City,
		body.Address.Street,
		body.Address.Building,
		deref(body.Address.Apartment),
		deref(body.Address.Comment),
	)
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}

	lines := make([]order.Line, 0, len(body.Lines))
	for i, l := range body.Lines {
		price, parseErr := decimal.NewFromString(l.UnitPrice)
		if parseErr != nil {
			return commands.CreateOrderCommand{}, errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("lines[%d].unitPrice", i), parseErr)
		}
		line, lineErr := order.NewLine(l.Sku, l.Name, price, l.Quantity)
		if lineErr != nil {
			return commands.CreateOrderCommand{}, lineErr
		}
		lines = append(lines, line)
	}

	return commands.NewCreateOrderCommand(customerID, address, lines, derefMap(body.Metadata))
}

func toOrder(d views.OrderDetails) servers.Order {
	response := servers.Order{
		Id:         d.ID.Bytes(),
		Number:     d.Number,
		CustomerId: d.CustomerID.Bytes(),
		Status:     servers.OrderStatus(d.Status.String()),
		Address: servers.Address{
			Country:   d.Address.Country,
			City:      d.Address.City,
			Street:    d.Address.Street,
			Building:  d.Address.Building,
			Apartment: optional(d.Address.Apartment),
			Comment:   optional(d.Address.Comment),
		},
		Lines:        make([]servers.OrderLine, len(d.Lines)),
		Total:        d.Total.StringFixed(2),
		History:      make([]servers.Stage, len(d.History)),
		NextStatuses: make([]servers.OrderStatus, len(d.NextStatuses)),
		Allocations:  make([]servers.Allocation, len(d.Allocations)),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if len(d.Metadata) > 0 {
		metadata := d.Metadata
		response.Metadata = &metadata
	}

	for i, l := range d.Lines {
		response.Lines[i] = servers.OrderLine{
			Sku:       l.SKU,
			Name:      l.Name,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal.StringFixed(2),
		}
	}
	for i, s := range d.History {
		response.History[i] = servers.Stage{
			Status:    servers.OrderStatus(s.Status.String()),
			EnteredAt: s.EnteredAt,
			Actor:     s.Actor,
			Note:      optional(s.Note),
		}
	}
	for i, s := range d.NextStatuses {
		response.NextStatuses[i] = servers.OrderStatus(s.String())
	}
	for i, a := range d.Allocations {
		response.Allocations[i] = servers.Allocation{Sku: a.SKU, LocationCode: a.LocationCode, Quantity: a.Quantity}
	}

	return response
}

func toStockLevel(level views.StockLevel) servers.StockLevel {
	return servers.StockLevel{
		LocationId:      level.LocationID.Bytes(),
		Sku:             level.SKU,
		LocationCode:    level.LocationCode,
		Zone:            level.Zone,
		Total:           level.Total,
		Reserved:        level.Reserved,
		Available:       level.Available,
		LastRestockedAt: level.LastRestockedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefMap(m *map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	return *m
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
