package services

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/clock"
	"fulfillment/internal/pkg/errs"
)

var (
	// ErrAllocationFailed is the sentinel wrapped by AllocationError.
	ErrAllocationFailed = errors.New("allocation failed")

	// ErrAlreadyReserved is returned when an order already holds a reservation.
	ErrAlreadyReserved = errors.New("order already holds a reservation")
)

// AllocationError reports the first line of an order that could not be reserved.
// It unwraps to both ErrAllocationFailed and the cause, so
// errors.Is(err, inventory.ErrInsufficientStock) works on it.
type AllocationError struct {
	OrderID kernel.UUID
	SKU     string
	Cause   error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("%s: order %s, sku %s: %v", ErrAllocationFailed, e.OrderID, e.SKU, e.Cause)
}

func (e *AllocationError) Unwrap() []error {
	return []error{ErrAllocationFailed, e.Cause}
}

// ProductLocker serializes stock changes per SKU. Locks acquired through it stay held
// until the caller's unit of work ends.
type ProductLocker interface {
	Acquire(ctx context.Context, skus ...string) error
}

// ReservationAllocator reserves stock for all lines of an order, all-or-nothing.
type ReservationAllocator struct {
	ledger       *StorageLedger
	reservations ports.ReservationRepository
	locker       ProductLocker
	clock        clock.Clock
}

// NewReservationAllocator creates an allocator. Every dependency is required.
func NewReservationAllocator(
	ledger *StorageLedger,
	reservations ports.ReservationRepository,
	locker ProductLocker,
	clk clock.Clock,
) (*ReservationAllocator, error) {
	if ledger == nil {
		return nil, errs.NewValueIsRequiredError("ledger")
	}
	if reservations == nil {
		return nil, errs.NewValueIsRequiredError("reservations")
	}
	if locker == nil {
		return nil, errs.NewValueIsRequiredError("locker")
	}
	if clk == nil {
		return nil, errs.NewValueIsRequiredError("clock")
	}
	return &ReservationAllocator{ledger: ledger, reservations: reservations, locker: locker, clock: clk}, nil
}

// ReserveForOrder reserves every line of o, scanning lines in stored order.
//
// Product locks for all SKUs of the order are acquired up front in one sorted batch.
// If any line fails, the reservations already made in this call are released before
// the error is returned, leaving stock as it was.
//
// Returns:
//   - inventory.Reservation: all allocations made, persisted
//   - *AllocationError wrapping the first failing line's cause
//   - ErrAlreadyReserved if the order already holds a reservation
//   - a retryable error if a product lock could not be acquired in time
func (a *ReservationAllocator) ReserveForOrder(ctx context.Context, o *order.Order) (inventory.Reservation, error) {
	if err := o.Validate(); err != nil {
		return inventory.Reservation{}, err
	}

	if _, err := a.reservations.Get(ctx, o.ID()); err == nil {
		return inventory.Reservation{}, fmt.Errorf("%w: %s", ErrAlreadyReserved, o.ID())
	} else if !errors.Is(err, errs.ErrObjectNotFound) {
		return inventory.Reservation{}, err
	}

	lines := o.Lines()
	skus := make([]string, 0, len(lines))
	for _, line := range lines {
		skus = append(skus, line.SKU())
	}
	if err := a.locker.Acquire(ctx, skus...); err != nil {
		return inventory.Reservation{}, err
	}

	var made []inventory.Allocation
	for _, line := range lines {
		allocations, err := a.ledger.Reserve(ctx, line.SKU(), line.Quantity())
		if err != nil {
			if compErr := a.compensate(ctx, made); compErr != nil {
				return inventory.Reservation{}, errors.Join(
					&AllocationError{OrderID: o.ID(), SKU: line.SKU(), Cause: err},
					fmt.Errorf("compensating release: %w", compErr),
				)
			}
			return inventory.Reservation{}, &AllocationError{OrderID: o.ID(), SKU: line.SKU(), Cause: err}
		}
		made = append(made, allocations...)
	}

	reservation, err := inventory.NewReservation(o.ID(), made, a.clock.Now())
	if err != nil {
		return inventory.Reservation{}, err
	}
	if err := a.reservations.Save(ctx, reservation); err != nil {
		return inventory.Reservation{}, err
	}

	return reservation, nil
}

// ReleaseReservation returns every allocation of r to available stock and deletes the
// reservation record.
func (a *ReservationAllocator) ReleaseReservation(ctx context.Context, r inventory.Reservation) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := a.locker.Acquire(ctx, r.SKUs()...); err != nil {
		return err
	}
	if err := a.release(ctx, r.Allocations()); err != nil {
		return err
	}
	return a.reservations.Delete(ctx, r.OrderID())
}

// ReleaseForOrder releases the reservation of orderID if there is one.
//
// Returns:
//   - bool: true if stock was released, false if the order held no reservation
//   - error: lock, persistence or invariant errors
func (a *ReservationAllocator) ReleaseForOrder(ctx context.Context, orderID kernel.UUID) (bool, error) {
	r, err := a.reservations.Get(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := a.ReleaseReservation(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}

func (a *ReservationAllocator) compensate(ctx context.Context, made []inventory.Allocation) error {
	if len(made) == 0 {
		return nil
	}
	return a.release(ctx, made)
}

// release groups allocations by SKU, keeping the first-seen SKU order.
func (a *ReservationAllocator) release(ctx context.Context, allocations []inventory.Allocation) error {
	var skus []string
	bySKU := make(map[string][]inventory.Allocation)
	for _, al := range allocations {
		if _, ok := bySKU[al.SKU]; !ok {
			skus = append(skus, al.SKU)
		}
		bySKU[al.SKU] = append(bySKU[al.SKU], al)
	}

	for _, sku := range skus {
		if err := a.ledger.Release(ctx, sku, bySKU[sku]); err != nil {
			return err
		}
	}
	return nil
}
