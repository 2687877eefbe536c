package commands_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/memory"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/clock"
	"fulfillment/internal/pkg/locks"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/pkg/retry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

var testPolicy = retry.Policy{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

// stockUoWFactoryFunc adapts the in-memory factory to commands.StockUoWFactory.
type stockUoWFactoryFunc func() commands.StockUoW

func (f stockUoWFactoryFunc) Create() commands.StockUoW { return f() }

// orderUoWFactoryFunc adapts the in-memory factory to commands.OrderUoWFactory.
type orderUoWFactoryFunc func() commands.OrderUoW

func (f orderUoWFactoryFunc) Create() commands.OrderUoW { return f() }

type fixture struct {
	store        *memory.Store
	factory      *memory.UnitOfWorkFactory
	orderLocks   *locks.KeyedMutex
	productLocks *locks.KeyedMutex
	clock        *clock.FixedClock
	metrics      *metrics.Metrics
	advance      *commands.AdvanceOrderStatusCommandHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{
		store:        store,
		factory:      memory.NewUnitOfWorkFactory(store, nil, zerolog.Nop()),
		orderLocks:   locks.NewKeyedMutex("order", time.Second),
		productLocks: locks.NewKeyedMutex("product", time.Second),
		clock:        clock.Fixed(t0),
		metrics:      metrics.New(),
	}
	f.advance = f.newAdvanceHandler(t, uowFactoryFunc(func() commands.UoW { return f.factory.Create() }))
	return f
}

func (f *fixture) newAdvanceHandler(t *testing.T, uowFactory commands.UoWFactory) *commands.AdvanceOrderStatusCommandHandler {
	t.Helper()
	registry, err := services.DefaultStageActionRegistry()
	require.NoError(t, err)
	engine, err := services.NewTransitionEngine(registry, f.clock)
	require.NoError(t, err)
	h, err := commands.NewAdvanceOrderStatusCommandHandler(
		uowFactory, engine, f.orderLocks, f.productLocks, f.clock, testPolicy, f.metrics, zerolog.Nop(),
	)
	require.NoError(t, err)
	return h
}

func (f *fixture) stockFactory() commands.StockUoWFactory {
	return stockUoWFactoryFunc(func() commands.StockUoW { return f.factory.Create() })
}

func (f *fixture) orderFactory() commands.OrderUoWFactory {
	return orderUoWFactoryFunc(func() commands.OrderUoW { return f.factory.Create() })
}

func (f *fixture) seed(t *testing.T, sku, code string, total int) {
	t.Helper()
	loc, err := inventory.NewStorageLocation(kernel.NewUUID(), sku, code, "A", total, t0)
	require.NoError(t, err)
	f.store.Seed(loc)
}

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

// createOrder stores a new Initialized order created at the fixture clock.
func (f *fixture) createOrder(t *testing.T, lines ...order.Line) *order.Order {
	t.Helper()
	ctx := context.Background()
	o, err := order.NewOrder(kernel.NewUUID(), order.NewNumber(f.clock.Now()), kernel.NewUUID(), testAddress(t), lines, nil, f.clock.Now())
	require.NoError(t, err)

	uow := f.factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.OrderRepository().Save(ctx, o))
	require.NoError(t, uow.Commit(ctx))
	return o
}

func (f *fixture) load(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := f.factory.Create().OrderRepository().Get(context.Background(), id)
	require.NoError(t, err)
	return o
}

// moveTo applies every target in turn and fails the test on the first error.
func (f *fixture) moveTo(t *testing.T, id kernel.UUID, targets ...order.Status) {
	t.Helper()
	for _, target := range targets {
		f.clock.Advance(time.Minute)
		_, err := f.advance.Handle(context.Background(), advanceCmd(t, id, target))
		require.NoError(t, err, target.String())
	}
}

func advanceCmd(t *testing.T, id kernel.UUID, target order.Status) commands.AdvanceOrderStatusCommand {
	t.Helper()
	cmd, err := commands.NewAdvanceOrderStatusCommand(id, target, "tester", "", nil)
	require.NoError(t, err)
	return cmd
}

var toConfirmed = []order.Status{order.AwaitingPayment, order.PaymentProcessing, order.PaymentConfirmed}
