// Package views holds the read models returned by commands and queries.
// They are plain data: building one never fails and holds no references into aggregates.
package views

import (
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// OrderDetails is the full view of an order.
type OrderDetails struct {
	ID           kernel.UUID
	Number       string
	CustomerID   kernel.UUID
	Status       order.Status
	Address      Address
	Lines        []Line
	Total        decimal.Decimal
	Metadata     map[string]string
	History      []Stage
	NextStatuses []order.Status
	Allocations  []Allocation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Address struct {
	Country   string
	City      string
	Street    string
	Building  string
	Apartment string
	Comment   string
}

type Line struct {
	SKU       string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
}

type Stage struct {
	Status    order.Status
	EnteredAt time.Time
	Actor     string
	Note      string
}

type Allocation struct {
	SKU          string
	LocationCode string
	Quantity     int
}

// StockLevel is the stock of one product at one location.
type StockLevel struct {
	LocationID      kernel.UUID
	SKU             string
	LocationCode    string
	Zone            string
	Total           int
	Reserved        int
	Available       int
	LastRestockedAt time.Time
}

// FromOrder builds the view of an aggregate without allocations.
func FromOrder(o *order.Order) OrderDetails {
	addr := o.Address()
	details := OrderDetails{
		ID:         o.ID(),
		Number:     o.Number(),
		CustomerID: o.CustomerID(),
		Status:     o.Status(),
		Address: Address{
			Country:   addr.Country(),
			City:      addr.City(),
			Street:    addr.Street(),
			Building:  addr.Building(),
			Apartment: addr.Apartment(),
			Comment:   addr.Comment(),
		},
		Total:        o.Total(),
		Metadata:     o.Metadata(),
		NextStatuses: o.Status().NextStatuses(),
		Allocations:  []Allocation{},
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
	}

	for _, l := range o.Lines() {
		details.Lines = append(details.Lines, Line{
			SKU:       l.SKU(),
			Name:      l.Name(),
			UnitPrice: l.UnitPrice(),
			Quantity:  l.Quantity(),
			Subtotal:  l.Subtotal(),
		})
	}
	for _, r := range o.History() {
		details.History = append(details.History, Stage{
			Status:    r.Status(),
			EnteredAt: r.EnteredAt(),
			Actor:     r.Actor(),
			Note:      r.Note(),
		})
	}

	return details
}

// WithReservation returns a copy of d listing the allocations of r.
func (d OrderDetails) WithReservation(r inventory.Reservation) OrderDetails {
	allocations := make([]Allocation, 0, len(r.Allocations()))
	for _, a := range r.Allocations() {
		allocations = append(allocations, Allocation{SKU: a.SKU, LocationCode: a.LocationCode, Quantity: a.Quantity})
	}
	d.Allocations = allocations
	return d
}

// ReservedQuantity sums the allocated units.
func (d OrderDetails) ReservedQuantity() int {
	n := 0
	for _, a := range d.Allocations {
		n += a.Quantity
	}
	return n
}

// FromStorageLocation builds the stock view of a location.
func FromStorageLocation(loc *inventory.StorageLocation) StockLevel {
	return StockLevel{
		LocationID:      loc.ID(),
		SKU:             loc.SKU(),
		LocationCode:    loc.Code(),
		Zone:            loc.Zone(),
		Total:           loc.Total(),
		Reserved:        loc.Reserved(),
		Available:       loc.Available(),
		LastRestockedAt: loc.LastRestockedAt(),
	}
}
