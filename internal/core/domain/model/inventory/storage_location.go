package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrStorageLocationIsNotConstructed indicates that the StorageLocation was not
// initialized through NewStorageLocation or RestoreStorageLocation.
var ErrStorageLocationIsNotConstructed = errors.New("StorageLocation must be created via NewStorageLocation constructor")

// StorageLocation is the stock of one product at one physical location of the warehouse.
//
// Key business rules:
//   - available = total - reserved, and is never negative
//   - reserved is never below zero and never above total
//   - the (sku, code) pair identifies a location for replenishment
//
// version is the optimistic concurrency stamp. Zero means the location was never
// persisted; repositories compare it on update and bump it on success.
//
// Example usage:
//
//	loc, err := inventory.NewStorageLocation(kernel.NewUUID(), "SKU-1", "A-01-03", "A", 12, now)
//	if err != nil {
//	    return err
//	}
//	err = loc.Reserve(5) // Available() == 7
type StorageLocation struct {
	id              kernel.UUID
	sku             string
	code            string
	zone            string
	total           int
	reserved        int
	version         int64
	lastRestockedAt time.Time

	guard guard.ConstructorGuard
}

// NewStorageLocation creates a location holding total units of sku with nothing reserved.
//
// Parameters:
//   - id: location identifier
//   - sku: product stock keeping unit, non-blank
//   - code: physical location identifier (for example aisle-rack-shelf), non-blank
//   - zone: warehouse zone, may be empty
//   - total: units present, not negative
//   - restockedAt: time the units were put in place
//
// Returns:
//   - *StorageLocation: the new location with version 0
//   - error: all validation failures joined
func NewStorageLocation(id kernel.UUID, sku, code, zone string, total int, restockedAt time.Time) (*StorageLocation, error) {
	return RestoreStorageLocation(id, sku, code, zone, total, 0, 0, restockedAt)
}

// RestoreStorageLocation rebuilds a location from persisted state.
func RestoreStorageLocation(
	id kernel.UUID,
	sku, code, zone string,
	total, reserved int,
	version int64,
	lastRestockedAt time.Time,
) (*StorageLocation, error) {
	loc := &StorageLocation{
		zone:            strings.TrimSpace(zone),
		lastRestockedAt: lastRestockedAt.UTC(),
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		loc.setID(id),
		loc.setSKU(sku),
		loc.setCode(code),
		loc.setQuantities(total, reserved),
		loc.setVersion(version),
	); err != nil {
		return nil, err
	}

	return loc, nil
}

// Validate reports whether the location was properly constructed.
func (l *StorageLocation) Validate() error {
	if l == nil {
		return ErrStorageLocationIsNotConstructed
	}
	return l.guard.Validate(ErrStorageLocationIsNotConstructed)
}

// IsEqual compares locations by identifier.
func (l *StorageLocation) IsEqual(other *StorageLocation) bool {
	return other != nil && l.id.IsEqual(other.id)
}

func (l *StorageLocation) ID() kernel.UUID            { return l.id }
func (l *StorageLocation) SKU() string                { return l.sku }
func (l *StorageLocation) Code() string               { return l.code }
func (l *StorageLocation) Zone() string               { return l.zone }
func (l *StorageLocation) Total() int                 { return l.total }
func (l *StorageLocation) Reserved() int              { return l.reserved }
func (l *StorageLocation) Version() int64             { return l.version }
func (l *StorageLocation) LastRestockedAt() time.Time { return l.lastRestockedAt }

// Available returns the quantity not held by any order.
func (l *StorageLocation) Available() int {
	return l.total - l.reserved
}

// Reserve moves qty units from available to reserved.
//
// Returns:
//   - ValueIsInvalidError if qty is not positive
//   - *InsufficientStockError if qty exceeds Available()
func (l *StorageLocation) Reserve(qty int) error {
	if qty <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("reserve quantity is invalid", fmt.Errorf("%d is not greater than 0", qty))
	}
	if qty > l.Available() {
		return &InsufficientStockError{SKU: l.sku, Requested: qty, Available: l.Available()}
	}
	l.reserved += qty
	return nil
}

// Release returns qty reserved units to available. Releasing more than is reserved
// fails with *InvalidReleaseAmountError and leaves the location unchanged.
func (l *StorageLocation) Release(qty int) error {
	if qty <= 0 || qty > l.reserved {
		return &InvalidReleaseAmountError{SKU: l.sku, LocationCode: l.code, Requested: qty, Reserved: l.reserved}
	}
	l.reserved -= qty
	return nil
}

// Restock adds qty units to the location total and stamps the restock time.
func (l *StorageLocation) Restock(qty int, at time.Time) error {
	if qty <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("restock quantity is invalid", fmt.Errorf("%d is not greater than 0", qty))
	}
	l.total += qty
	l.lastRestockedAt = at.UTC()
	return nil
}

func (l *StorageLocation) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	l.id = id
	return nil
}

func (l *StorageLocation) setSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return errs.NewValueIsRequiredError("sku")
	}
	l.sku = sku
	return nil
}

func (l *StorageLocation) setCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errs.NewValueIsRequiredError("location code")
	}
	l.code = code
	return nil
}

func (l *StorageLocation) setQuantities(total, reserved int) error {
	if total < 0 {
		return errs.NewValueIsOutOfRangeError("total", total, 0, "unbounded")
	}
	if reserved < 0 || reserved > total {
		return errs.NewValueIsOutOfRangeError("reserved", reserved, 0, total)
	}
	l.total = total
	l.reserved = reserved
	return nil
}

func (l *StorageLocation) setVersion(version int64) error {
	if version < 0 {
		return errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is negative", version))
	}
	l.version = version
	return nil
}
