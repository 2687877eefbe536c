package commands_test

import (
	"context"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) FindStaleInStatus(
	ctx context.Context, status order.Status, enteredBefore time.Time, limit int,
) ([]kernel.UUID, error) {
	args := m.Called(ctx, status, enteredBefore, limit)
	ids, _ := args.Get(0).([]kernel.UUID)
	return ids, args.Error(1)
}

type MockStorageLocationRepository struct{ mock.Mock }

func (m *MockStorageLocationRepository) FindCandidateLocations(
	ctx context.Context, sku string,
) ([]*inventory.StorageLocation, error) {
	args := m.Called(ctx, sku)
	locs, _ := args.Get(0).([]*inventory.StorageLocation)
	return locs, args.Error(1)
}

func (m *MockStorageLocationRepository) Get(ctx context.Context, id kernel.UUID) (*inventory.StorageLocation, error) {
	args := m.Called(ctx, id)
	loc, _ := args.Get(0).(*inventory.StorageLocation)
	return loc, args.Error(1)
}

func (m *MockStorageLocationRepository) FindByCode(
	ctx context.Context, sku, code string,
) (*inventory.StorageLocation, error) {
	args := m.Called(ctx, sku, code)
	loc, _ := args.Get(0).(*inventory.StorageLocation)
	return loc, args.Error(1)
}

func (m *MockStorageLocationRepository) Persist(ctx context.Context, loc *inventory.StorageLocation) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockStockUoW struct{ mock.Mock }

func (m *MockStockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStockUoW) StorageLocationRepository() ports.StorageLocationRepository {
	args := m.Called()
	return args.Get(0).(ports.StorageLocationRepository)
}

func (m *MockStockUoW) ReservationRepository() ports.ReservationRepository {
	args := m.Called()
	return args.Get(0).(ports.ReservationRepository)
}

type MockStockUoWFactory struct{ mock.Mock }

func (m *MockStockUoWFactory) Create() commands.StockUoW {
	args := m.Called()
	return args.Get(0).(commands.StockUoW)
}

// uowFactoryFunc adapts the in-memory factory to commands.UoWFactory.
type uowFactoryFunc func() commands.UoW

func (f uowFactoryFunc) Create() commands.UoW { return f() }
