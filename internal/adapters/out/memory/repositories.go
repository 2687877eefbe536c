package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

type orderRepository struct {
	uow *UnitOfWork
}

func (r *orderRepository) Save(_ context.Context, aggregate *order.Order) error {
	if !r.uow.active {
		return ErrNoTransaction
	}
	if err := aggregate.Validate(); err != nil {
		return err
	}

	if previous, ok := r.visible(aggregate.ID()); ok && len(previous.History()) > len(aggregate.History()) {
		return fmt.Errorf("order %s: stage history cannot shrink", aggregate.ID())
	}

	clone, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}
	r.uow.orders[aggregate.ID()] = clone
	r.uow.tracker.TrackAggregate(aggregate)
	return nil
}

func (r *orderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	o, ok := r.visible(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(o)
}

func (r *orderRepository) FindStaleInStatus(
	_ context.Context,
	status order.Status,
	enteredBefore time.Time,
	limit int,
) ([]kernel.UUID, error) {
	r.uow.store.mu.Lock()
	merged := make(map[kernel.UUID]*order.Order, len(r.uow.store.orders))
	for id, o := range r.uow.store.orders {
		merged[id] = o
	}
	r.uow.store.mu.Unlock()
	for id, o := range r.uow.orders {
		merged[id] = o
	}

	stale := make([]*order.Order, 0)
	for _, o := range merged {
		if o.Status() == status && o.LastStage().EnteredAt().Before(enteredBefore) {
			stale = append(stale, o)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		return stale[i].LastStage().EnteredAt().Before(stale[j].LastStage().EnteredAt())
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	ids := make([]kernel.UUID, 0, len(stale))
	for _, o := range stale {
		ids = append(ids, o.ID())
	}
	return ids, nil
}

func (r *orderRepository) visible(id kernel.UUID) (*order.Order, bool) {
	if o, ok := r.uow.orders[id]; ok {
		return o, true
	}
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	o, ok := r.uow.store.orders[id]
	return o, ok
}

type locationRepository struct {
	uow *UnitOfWork
}

func (r *locationRepository) FindCandidateLocations(_ context.Context, sku string) ([]*inventory.StorageLocation, error) {
	rows := make(map[kernel.UUID]locationRow)
	r.uow.store.mu.Lock()
	for id, row := range r.uow.store.locations {
		if row.sku == sku {
			rows[id] = row
		}
	}
	r.uow.store.mu.Unlock()
	for id, row := range r.uow.locations {
		if row.sku == sku {
			rows[id] = row
		}
	}

	locations := make([]*inventory.StorageLocation, 0, len(rows))
	for _, row := range rows {
		loc, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	inventory.SortByCode(locations)
	return locations, nil
}

func (r *locationRepository) Get(_ context.Context, id kernel.UUID) (*inventory.StorageLocation, error) {
	row, ok := r.visible(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("storage location", id.String())
	}
	return row.toDomain()
}

func (r *locationRepository) FindByCode(ctx context.Context, sku, code string) (*inventory.StorageLocation, error) {
	locations, err := r.FindCandidateLocations(ctx, sku)
	if err != nil {
		return nil, err
	}
	for _, loc := range locations {
		if loc.Code() == code {
			return loc, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("storage location", sku+"@"+code)
}

func (r *locationRepository) Persist(_ context.Context, loc *inventory.StorageLocation) error {
	if !r.uow.active {
		return ErrNoTransaction
	}
	if err := loc.Validate(); err != nil {
		return err
	}

	current, exists := r.visible(loc.ID())
	if loc.Version() == 0 {
		if exists {
			return ports.NewConcurrentModificationError("storage location " + loc.Code())
		}
		r.uow.baseVersions[loc.ID()] = 0
		r.uow.locations[loc.ID()] = rowFromDomain(loc, 1)
		return nil
	}

	if !exists || current.version != loc.Version() {
		return ports.NewConcurrentModificationError("storage location " + loc.Code())
	}
	if _, touched := r.uow.baseVersions[loc.ID()]; !touched {
		r.uow.baseVersions[loc.ID()] = current.version
	}
	r.uow.locations[loc.ID()] = rowFromDomain(loc, current.version+1)
	return nil
}

func (r *locationRepository) visible(id kernel.UUID) (locationRow, bool) {
	if row, ok := r.uow.locations[id]; ok {
		return row, true
	}
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	row, ok := r.uow.store.locations[id]
	return row, ok
}

type reservationRepository struct {
	uow *UnitOfWork
}

func (r *reservationRepository) Save(_ context.Context, reservation inventory.Reservation) error {
	if !r.uow.active {
		return ErrNoTransaction
	}
	if err := reservation.Validate(); err != nil {
		return err
	}
	if _, ok := r.visible(reservation.OrderID()); ok {
		return fmt.Errorf("reservation for order %s already exists", reservation.OrderID())
	}
	r.uow.reservations[reservation.OrderID()] = &reservation
	return nil
}

func (r *reservationRepository) Get(_ context.Context, orderID kernel.UUID) (inventory.Reservation, error) {
	reservation, ok := r.visible(orderID)
	if !ok {
		return inventory.Reservation{}, errs.NewObjectNotFoundError("reservation", orderID.String())
	}
	return reservation, nil
}

func (r *reservationRepository) Delete(_ context.Context, orderID kernel.UUID) error {
	if !r.uow.active {
		return ErrNoTransaction
	}
	r.uow.reservations[orderID] = nil
	return nil
}

func (r *reservationRepository) visible(orderID kernel.UUID) (inventory.Reservation, bool) {
	if reservation, buffered := r.uow.reservations[orderID]; buffered {
		if reservation == nil {
			return inventory.Reservation{}, false
		}
		return *reservation, true
	}
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	reservation, ok := r.uow.store.reservations[orderID]
	return reservation, ok
}
