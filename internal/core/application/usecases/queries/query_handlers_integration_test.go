package queries_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/inventoryrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/pgtest"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type noopTracker struct{}

func (noopTracker) TrackAggregate(*order.Order) {}

type QueryHandlersIntegrationTestSuite struct {
	suite.Suite
	database     *pgtest.Database
	orders       *orderrepo.GormOrderRepository
	locations    *inventoryrepo.GormStorageLocationRepository
	reservations *inventoryrepo.GormReservationRepository
}

func (suite *QueryHandlersIntegrationTestSuite) SetupSuite() {
	database, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.orders = orderrepo.NewGormOrderRepository(database.DB, noopTracker{}, false)
	suite.locations = inventoryrepo.NewGormStorageLocationRepository(database.DB)
	suite.reservations = inventoryrepo.NewGormReservationRepository(database.DB)
}

func (suite *QueryHandlersIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
}

func (suite *QueryHandlersIntegrationTestSuite) TearDownSuite() {
	if suite.database != nil {
		suite.Require().NoError(suite.database.Terminate(context.Background()))
	}
}

// saveOrderAt stores an order whose history walks through path, one minute per stage.
func (suite *QueryHandlersIntegrationTestSuite) saveOrderAt(path ...order.Status) *order.Order {
	addr, err := kernel.NewAddress("DE", "Berlin", "Invalidenstrasse", "117", "4", "ring twice")
	suite.Require().NoError(err)
	first, err := order.NewLine("P", "Pen", decimal.RequireFromString("2.50"), 3)
	suite.Require().NoError(err)
	second, err := order.NewLine("Q", "Notebook", decimal.RequireFromString("4.10"), 1)
	suite.Require().NoError(err)

	history := make([]order.StageRecord, 0, len(path))
	for i, status := range path {
		record, recordErr := order.NewStageRecord(status, t0.Add(time.Duration(i)*time.Minute), "tester", status.String())
		suite.Require().NoError(recordErr)
		history = append(history, record)
	}

	o, err := order.RestoreOrder(kernel.NewUUID(), order.NewNumber(t0), kernel.NewUUID(), addr,
		[]order.Line{first, second}, map[string]string{"channel": "web"}, history,
		t0, t0.Add(time.Duration(len(path)-1)*time.Minute))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.orders.Save(context.Background(), o))
	return o
}

func (suite *QueryHandlersIntegrationTestSuite) seedLocation(sku, code string, total, reserved int) *inventory.StorageLocation {
	ctx := context.Background()
	loc, err := inventory.NewStorageLocation(kernel.NewUUID(), sku, code, "A", total, t0)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.locations.Persist(ctx, loc))
	if reserved > 0 {
		stored, getErr := suite.locations.Get(ctx, loc.ID())
		suite.Require().NoError(getErr)
		suite.Require().NoError(stored.Reserve(reserved))
		suite.Require().NoError(suite.locations.Persist(ctx, stored))
	}
	return loc
}

func (suite *QueryHandlersIntegrationTestSuite) getOrder(id kernel.UUID) (views.OrderDetails, error) {
	query, err := queries.NewGetOrderQuery(id)
	suite.Require().NoError(err)
	return queries.NewGetOrderQueryHandler(suite.database.DB).Handle(context.Background(), query)
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetOrder_ReturnsFullView() {
	o := suite.saveOrderAt(order.Initialized, order.AwaitingPayment, order.PaymentProcessing,
		order.PaymentConfirmed, order.Picking)
	l1 := suite.seedLocation("P", "L1", 2, 2)
	l2 := suite.seedLocation("P", "L2", 5, 1)
	l3 := suite.seedLocation("Q", "L1", 1, 1)
	reservation, err := inventory.NewReservation(o.ID(), []inventory.Allocation{
		{LocationID: l1.ID(), LocationCode: "L1", SKU: "P", Quantity: 2},
		{LocationID: l2.ID(), LocationCode: "L2", SKU: "P", Quantity: 1},
		{LocationID: l3.ID(), LocationCode: "L1", SKU: "Q", Quantity: 1},
	}, t0)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.reservations.Save(context.Background(), reservation))

	details, err := suite.getOrder(o.ID())

	suite.Require().NoError(err)
	suite.Equal(o.ID(), details.ID)
	suite.Equal(o.Number(), details.Number)
	suite.Equal(o.CustomerID(), details.CustomerID)
	suite.Equal(order.Picking, details.Status)
	suite.Equal([]order.Status{order.Packing, order.Cancelled}, details.NextStatuses)
	suite.Equal("ring twice", details.Address.Comment)
	suite.Equal(map[string]string{"channel": "web"}, details.Metadata)
	suite.Equal("11.6", details.Total.String())
	suite.Require().Len(details.Lines, 2)
	suite.Equal("7.5", details.Lines[0].Subtotal.String())
	suite.Equal("Notebook", details.Lines[1].Name)
	suite.Require().Len(details.History, 5)
	suite.Equal(order.Initialized, details.History[0].Status)
	suite.Equal(t0.Add(4*time.Minute), details.History[4].EnteredAt)
	suite.Equal("Picking", details.History[4].Note)
	suite.Equal(t0, details.CreatedAt)
	suite.Equal(t0.Add(4*time.Minute), details.UpdatedAt)
	suite.Equal([]views.Allocation{
		{SKU: "P", LocationCode: "L1", Quantity: 2},
		{SKU: "P", LocationCode: "L2", Quantity: 1},
		{SKU: "Q", LocationCode: "L1", Quantity: 1},
	}, details.Allocations)
	suite.Equal(4, details.ReservedQuantity())
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetOrder_MatchesAggregateView() {
	o := suite.saveOrderAt(order.Initialized, order.Cancelled)

	details, err := suite.getOrder(o.ID())

	suite.Require().NoError(err)
	expected := views.FromOrder(o)
	suite.Equal(expected.Status, details.Status)
	suite.Equal(expected.History, details.History)
	suite.True(expected.Total.Equal(details.Total))
	suite.Empty(details.NextStatuses)
	suite.NotNil(details.Allocations)
	suite.Empty(details.Allocations)
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetOrder_Unknown_ReturnsNotFound() {
	_, err := suite.getOrder(kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetOrder_InvalidQuery_ReturnsError() {
	_, err := queries.NewGetOrderQueryHandler(suite.database.DB).Handle(context.Background(), queries.GetOrderQuery{})

	suite.Require().ErrorIs(err, queries.ErrGetOrderQueryIsNotConstructed)
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetStockLevels_OrderedByCode() {
	suite.seedLocation("P", "L2", 5, 1)
	suite.seedLocation("P", "L1", 2, 2)
	suite.seedLocation("Q", "L0", 9, 0)
	query, err := queries.NewGetStockLevelsQuery("P")
	suite.Require().NoError(err)

	levels, err := queries.NewGetStockLevelsQueryHandler(suite.database.DB).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(levels, 2)
	suite.Equal("L1", levels[0].LocationCode)
	suite.Equal(0, levels[0].Available)
	suite.Equal("L2", levels[1].LocationCode)
	suite.Equal(5, levels[1].Total)
	suite.Equal(1, levels[1].Reserved)
	suite.Equal(4, levels[1].Available)
	suite.Equal("A", levels[1].Zone)
	suite.Equal(t0, levels[1].LastRestockedAt)
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetStockLevels_UnknownSKU_ReturnsEmptySlice() {
	query, err := queries.NewGetStockLevelsQuery("missing")
	suite.Require().NoError(err)

	levels, err := queries.NewGetStockLevelsQueryHandler(suite.database.DB).Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.NotNil(levels)
	suite.Empty(levels)
}

func (suite *QueryHandlersIntegrationTestSuite) TestGetStockLevels_CancelledContext_ReturnsError() {
	suite.seedLocation("P", "L1", 1, 0)
	query, err := queries.NewGetStockLevelsQuery("P")
	suite.Require().NoError(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	levels, err := queries.NewGetStockLevelsQueryHandler(suite.database.DB).Handle(ctx, query)

	suite.Require().Error(err)
	suite.Nil(levels)
}

func TestQueryHandlersIntegrationSuite(t *testing.T) {
	suite.Run(t, new(QueryHandlersIntegrationTestSuite))
}
