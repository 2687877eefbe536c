package services

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// StorageLedger reserves and releases stock of a single product across its storage
// locations. Callers must hold the product lock for the SKU for as long as the
// surrounding unit of work is open.
type StorageLedger struct {
	locations ports.StorageLocationRepository
}

// NewStorageLedger creates a ledger over the given repository.
func NewStorageLedger(locations ports.StorageLocationRepository) (*StorageLedger, error) {
	if locations == nil {
		return nil, errs.NewValueIsRequiredError("locations")
	}
	return &StorageLedger{locations: locations}, nil
}

// Reserve reserves qty units of sku, splitting across locations in ascending location
// code order. Either the whole quantity is reserved or nothing is.
//
// Returns:
//   - []inventory.Allocation: the locations and quantities reserved
//   - *inventory.InsufficientStockError when available stock is short
//   - a retryable error when a location changed concurrently
func (l *StorageLedger) Reserve(ctx context.Context, sku string, qty int) ([]inventory.Allocation, error) {
	candidates, err := l.locations.FindCandidateLocations(ctx, sku)
	if err != nil {
		return nil, err
	}

	allocations, err := inventory.Allocate(candidates, sku, qty)
	if err != nil {
		return nil, err
	}

	byID := make(map[kernel.UUID]*inventory.StorageLocation, len(candidates))
	for _, loc := range candidates {
		byID[loc.ID()] = loc
	}
	for _, a := range allocations {
		if err := l.locations.Persist(ctx, byID[a.LocationID]); err != nil {
			return nil, err
		}
	}

	return allocations, nil
}

// Release returns the given allocations of sku to available stock. All allocations are
// checked before anything is persisted, so a release larger than what is reserved at
// any location fails with *inventory.InvalidReleaseAmountError and changes nothing.
func (l *StorageLedger) Release(ctx context.Context, sku string, allocations []inventory.Allocation) error {
	touched := make([]*inventory.StorageLocation, 0, len(allocations))
	byID := make(map[kernel.UUID]*inventory.StorageLocation, len(allocations))

	for _, a := range allocations {
		if a.SKU != sku {
			return errs.NewValueIsInvalidErrorWithCause("allocation is invalid",
				fmt.Errorf("allocation at %s is for %s, not %s", a.LocationCode, a.SKU, sku))
		}

		loc, ok := byID[a.LocationID]
		if !ok {
			var err error
			loc, err = l.locations.Get(ctx, a.LocationID)
			if err != nil {
				return err
			}
			if loc.SKU() != sku {
				return errs.NewValueIsInvalidErrorWithCause("allocation is invalid",
					fmt.Errorf("location %s holds %s, not %s", loc.Code(), loc.SKU(), sku))
			}
			byID[a.LocationID] = loc
			touched = append(touched, loc)
		}

		if err := loc.Release(a.Quantity); err != nil {
			return err
		}
	}

	for _, loc := range touched {
		if err := l.locations.Persist(ctx, loc); err != nil {
			return err
		}
	}

	return nil
}

// IsInvariantViolation reports errors that indicate a bookkeeping bug rather than a
// business outcome.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, inventory.ErrInvalidReleaseAmount) || errors.Is(err, ErrMissingStageHandler)
}
