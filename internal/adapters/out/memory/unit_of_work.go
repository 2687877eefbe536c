package memory

import (
	"context"
	"fmt"

	"fulfillment/internal/adapters/out/tracking"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/rs/zerolog"
)

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store     *Store
	publisher ports.EventPublisher
	logger    zerolog.Logger
}

// NewUnitOfWorkFactory creates a factory. publisher may be nil.
func NewUnitOfWorkFactory(store *Store, publisher ports.EventPublisher, logger zerolog.Logger) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store, publisher: publisher, logger: logger}
}

// Create returns a fresh unit of work.
func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return f.CreateUnitOfWork()
}

// CreateUnitOfWork returns the concrete type, for tests that inspect it.
func (f *UnitOfWorkFactory) CreateUnitOfWork() *UnitOfWork {
	return &UnitOfWork{
		store:   f.store,
		tracker: tracking.NewTracker(f.publisher, f.logger),
	}
}

// UnitOfWork buffers writes until Commit.
type UnitOfWork struct {
	store   *Store
	tracker *tracking.Tracker

	active       bool
	orders       map[kernel.UUID]*order.Order
	locations    map[kernel.UUID]locationRow
	baseVersions map[kernel.UUID]int64
	reservations map[kernel.UUID]*inventory.Reservation
}

// Begin starts buffering. Calling Begin twice is a no-op.
func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.active = true
	u.orders = make(map[kernel.UUID]*order.Order)
	u.locations = make(map[kernel.UUID]locationRow)
	u.baseVersions = make(map[kernel.UUID]int64)
	u.reservations = make(map[kernel.UUID]*inventory.Reservation)
	return nil
}

// Commit checks storage location versions against the store and applies all buffered
// writes atomically. A version mismatch discards the buffer and returns a retryable
// ports.ErrConcurrentModification.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	defer u.end()

	if err := u.apply(); err != nil {
		u.tracker.Reset()
		return err
	}

	u.tracker.Dispatch(ctx)
	return nil
}

func (u *UnitOfWork) apply() error {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, row := range u.locations {
		base := u.baseVersions[id]
		stored, exists := s.locations[id]
		if base == 0 {
			if exists {
				return ports.NewConcurrentModificationError("storage location " + row.code)
			}
			for _, other := range s.locations {
				if other.sku == row.sku && other.code == row.code {
					return ports.NewConcurrentModificationError("storage location " + row.code)
				}
			}
			continue
		}
		if !exists || stored.version != base {
			return ports.NewConcurrentModificationError("storage location " + row.code)
		}
	}
	for id, o := range u.orders {
		for otherID, other := range s.orders {
			if !otherID.IsEqual(id) && other.Number() == o.Number() {
				return fmt.Errorf("order number %s already exists", o.Number())
			}
		}
		if stored, ok := s.orders[id]; ok && len(stored.History()) > len(o.History()) {
			return ports.NewConcurrentModificationError("order " + id.String())
		}
	}

	for id, row := range u.locations {
		s.locations[id] = row
	}
	for id, o := range u.orders {
		s.orders[id] = o
	}
	for id, r := range u.reservations {
		if r == nil {
			delete(s.reservations, id)
			continue
		}
		s.reservations[id] = *r
	}
	return nil
}

// Rollback discards buffered writes.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.tracker.Reset()
	u.end()
	return nil
}

func (u *UnitOfWork) end() {
	u.active = false
	u.orders = nil
	u.locations = nil
	u.baseVersions = nil
	u.reservations = nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: u}
}

func (u *UnitOfWork) StorageLocationRepository() ports.StorageLocationRepository {
	return &locationRepository{uow: u}
}

func (u *UnitOfWork) ReservationRepository() ports.ReservationRepository {
	return &reservationRepository{uow: u}
}

// Seed stores locations directly, bypassing any unit of work. Versions start at 1.
func (s *Store) Seed(locations ...*inventory.StorageLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, loc := range locations {
		s.locations[loc.ID()] = rowFromDomain(loc, max(loc.Version(), 1))
	}
}
