package services_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/clock"
	"fulfillment/internal/pkg/locks"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Store
	factory  *memory.UnitOfWorkFactory
	products *locks.KeyedMutex
	clock    *clock.FixedClock
}

func newFixture() *fixture {
	store := memory.NewStore()
	return &fixture{
		store:    store,
		factory:  memory.NewUnitOfWorkFactory(store, nil, zerolog.Nop()),
		products: locks.NewKeyedMutex("product", time.Second),
		clock:    clock.Fixed(t0),
	}
}

// seed stores a location of sku at code with total units, nothing reserved.
func (f *fixture) seed(t *testing.T, sku, code string, total int) *inventory.StorageLocation {
	t.Helper()
	loc, err := inventory.NewStorageLocation(kernel.NewUUID(), sku, code, "A", total, t0)
	require.NoError(t, err)
	f.store.Seed(loc)
	return loc
}

// available returns the committed available quantity per location code of sku.
func (f *fixture) available(t *testing.T, sku string) map[string]int {
	t.Helper()
	locs, err := f.factory.Create().StorageLocationRepository().FindCandidateLocations(context.Background(), sku)
	require.NoError(t, err)
	out := make(map[string]int, len(locs))
	for _, loc := range locs {
		out[loc.Code()] = loc.Available()
	}
	return out
}

// session is one unit of work with the services bound to it.
type session struct {
	uow       *memory.UnitOfWork
	ledger    *services.StorageLedger
	allocator *services.ReservationAllocator
	held      *locks.Set
}

func (f *fixture) begin(t *testing.T) *session {
	t.Helper()
	uow := f.factory.CreateUnitOfWork()
	require.NoError(t, uow.Begin(context.Background()))
	ledger, err := services.NewStorageLedger(uow.StorageLocationRepository())
	require.NoError(t, err)
	held := f.products.NewSet()
	allocator, err := services.NewReservationAllocator(ledger, uow.ReservationRepository(), held, f.clock)
	require.NoError(t, err)
	return &session{uow: uow, ledger: ledger, allocator: allocator, held: held}
}

func (s *session) commit(t *testing.T) {
	t.Helper()
	defer s.held.ReleaseAll()
	require.NoError(t, s.uow.Commit(context.Background()))
}

func (s *session) rollback(t *testing.T) {
	t.Helper()
	defer s.held.ReleaseAll()
	require.NoError(t, s.uow.Rollback(context.Background()))
}

func line(t *testing.T, sku string, qty int) order.Line {
	t.Helper()
	l, err := order.NewLine(sku, sku, decimal.NewFromInt(3), qty)
	require.NoError(t, err)
	return l
}

func newOrder(t *testing.T, lines ...order.Line) *order.Order {
	t.Helper()
	addr, err := kernel.NewAddress("NL", "Utrecht", "Oudegracht", "12", "", "")
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), order.NewNumber(t0), kernel.NewUUID(), addr, lines, nil, t0)
	require.NoError(t, err)
	return o
}

// restoreAt builds an order whose history walks path, one minute per stage.
func restoreAt(t *testing.T, path []order.Status, lines ...order.Line) *order.Order {
	t.Helper()
	addr, err := kernel.NewAddress("NL", "Utrecht", "Oudegracht", "12", "", "")
	require.NoError(t, err)
	history := make([]order.StageRecord, 0, len(path))
	for i, s := range path {
		r, recErr := order.NewStageRecord(s, t0.Add(time.Duration(i)*time.Minute), "test", "")
		require.NoError(t, recErr)
		history = append(history, r)
	}
	o, err := order.RestoreOrder(kernel.NewUUID(), order.NewNumber(t0), kernel.NewUUID(), addr, lines, nil,
		history, t0, history[len(history)-1].EnteredAt())
	require.NoError(t, err)
	return o
}

var paidPath = []order.Status{
	order.Initialized,
	order.AwaitingPayment,
	order.PaymentProcessing,
	order.PaymentConfirmed,
}
