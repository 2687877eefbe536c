// Package memory is an in-process implementation of the unit of work and repositories.
// Writes are buffered per unit of work and applied on Commit after optimistic version
// checks, mirroring the PostgreSQL adapter closely enough for use-case tests.
package memory

import (
	"errors"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// ErrNoTransaction is returned by writes issued outside Begin/Commit.
var ErrNoTransaction = errors.New("no active transaction")

type locationRow struct {
	id              kernel.UUID
	sku             string
	code            string
	zone            string
	total           int
	reserved        int
	version         int64
	lastRestockedAt time.Time
}

func rowFromDomain(loc *inventory.StorageLocation, version int64) locationRow {
	return locationRow{
		id:              loc.ID(),
		sku:             loc.SKU(),
		code:            loc.Code(),
		zone:            loc.Zone(),
		total:           loc.Total(),
		reserved:        loc.Reserved(),
		version:         version,
		lastRestockedAt: loc.LastRestockedAt(),
	}
}

func (r locationRow) toDomain() (*inventory.StorageLocation, error) {
	return inventory.RestoreStorageLocation(r.id, r.sku, r.code, r.zone, r.total, r.reserved, r.version, r.lastRestockedAt)
}

// Store holds committed state shared by all units of work created from it.
type Store struct {
	mu           sync.Mutex
	orders       map[kernel.UUID]*order.Order
	locations    map[kernel.UUID]locationRow
	reservations map[kernel.UUID]inventory.Reservation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		orders:       make(map[kernel.UUID]*order.Order),
		locations:    make(map[kernel.UUID]locationRow),
		reservations: make(map[kernel.UUID]inventory.Reservation),
	}
}

// cloneOrder rebuilds an order from its getters so stored state never aliases an
// aggregate held by a caller. Pending events are not copied.
func cloneOrder(o *order.Order) (*order.Order, error) {
	return order.RestoreOrder(
		o.ID(), o.Number(), o.CustomerID(), o.Address(), o.Lines(), o.Metadata(),
		o.History(), o.CreatedAt(), o.UpdatedAt(),
	)
}
