package inventory

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrReservationIsNotConstructed is returned for a zero-value Reservation.
var ErrReservationIsNotConstructed = errors.New("Reservation must be created via NewReservation constructor")

// Reservation records every allocation made for one order, so the order's stock can be
// returned with exactly the matching releases.
type Reservation struct {
	orderID     kernel.UUID
	allocations []Allocation
	createdAt   time.Time
	guard       guard.ConstructorGuard
}

// NewReservation creates a reservation for orderID. At least one allocation is required
// and every allocation must have a positive quantity.
func NewReservation(orderID kernel.UUID, allocations []Allocation, createdAt time.Time) (Reservation, error) {
	if err := orderID.Validate(); err != nil {
		return Reservation{}, err
	}
	if len(allocations) == 0 {
		return Reservation{}, errs.NewValueIsRequiredError("allocations")
	}
	for i, a := range allocations {
		if a.Quantity <= 0 {
			return Reservation{}, errs.NewValueIsInvalidErrorWithCause("allocation is invalid",
				fmt.Errorf("allocation %d: %d is not greater than 0", i, a.Quantity))
		}
	}

	cp := make([]Allocation, len(allocations))
	copy(cp, allocations)

	return Reservation{
		orderID:     orderID,
		allocations: cp,
		createdAt:   createdAt.UTC(),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate reports whether the reservation was built by NewReservation.
func (r Reservation) Validate() error {
	return r.guard.Validate(ErrReservationIsNotConstructed)
}

// OrderID returns the order the stock is held for.
func (r Reservation) OrderID() kernel.UUID { return r.orderID }

// CreatedAt returns when the reservation was made, in UTC.
func (r Reservation) CreatedAt() time.Time { return r.createdAt }

// Allocations returns a copy of the allocations in the order they were made.
func (r Reservation) Allocations() []Allocation {
	cp := make([]Allocation, len(r.allocations))
	copy(cp, r.allocations)
	return cp
}

// SKUs returns the distinct products of the reservation, sorted.
func (r Reservation) SKUs() []string {
	seen := make(map[string]struct{}, len(r.allocations))
	skus := make([]string, 0, len(r.allocations))
	for _, a := range r.allocations {
		if _, ok := seen[a.SKU]; ok {
			continue
		}
		seen[a.SKU] = struct{}{}
		skus = append(skus, a.SKU)
	}
	sort.Strings(skus)
	return skus
}

// AllocationsFor returns the allocations of one product.
func (r Reservation) AllocationsFor(sku string) []Allocation {
	var out []Allocation
	for _, a := range r.allocations {
		if a.SKU == sku {
			out = append(out, a)
		}
	}
	return out
}

// Quantity returns the total reserved units across all products.
func (r Reservation) Quantity() int {
	n := 0
	for _, a := range r.allocations {
		n += a.Quantity
	}
	return n
}
