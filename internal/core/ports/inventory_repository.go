package ports

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// ErrConcurrentModification is returned by StorageLocationRepository.Persist when the
// stored version no longer matches the version the location was loaded with. It is
// always wrapped in errs.RetryableError.
var ErrConcurrentModification = errors.New("concurrent modification")

// NewConcurrentModificationError wraps ErrConcurrentModification as retryable.
func NewConcurrentModificationError(what string) error {
	return errs.NewRetryableError("persist "+what, ErrConcurrentModification)
}

// StorageLocationRepository defines the persistence contract for storage locations.
type StorageLocationRepository interface {
	// FindCandidateLocations returns every location of sku ordered by location code.
	// An unknown sku yields an empty slice.
	FindCandidateLocations(ctx context.Context, sku string) ([]*inventory.StorageLocation, error)

	// Get loads one location. Returns errs.ObjectNotFoundError if it does not exist.
	Get(ctx context.Context, id kernel.UUID) (*inventory.StorageLocation, error)

	// FindByCode loads the location of sku at code.
	// Returns errs.ObjectNotFoundError if it does not exist.
	FindByCode(ctx context.Context, sku, code string) (*inventory.StorageLocation, error)

	// Persist inserts a location with version 0 and updates any other location only if
	// its stored version still equals loc.Version(). A version mismatch fails with a
	// retryable ErrConcurrentModification. Reload a location before persisting it again.
	Persist(ctx context.Context, loc *inventory.StorageLocation) error
}

// ReservationRepository stores the allocations made for an order so they can be released.
type ReservationRepository interface {
	// Save stores a new reservation. An order has at most one reservation.
	Save(ctx context.Context, reservation inventory.Reservation) error

	// Get returns the reservation of an order or errs.ObjectNotFoundError.
	Get(ctx context.Context, orderID kernel.UUID) (inventory.Reservation, error)

	// Delete removes the reservation of an order. Deleting a missing reservation is not an error.
	Delete(ctx context.Context, orderID kernel.UUID) error
}
