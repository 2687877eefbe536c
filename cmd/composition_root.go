package cmd

import (
	paymentamqp "fulfillment/internal/adapters/in/amqp"
	httpadapter "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/clock"
	"fulfillment/internal/pkg/locks"
	"fulfillment/internal/pkg/metrics"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	metrics    *metrics.Metrics
	clock      clock.Clock
	logger     zerolog.Logger

	orderLocks   *locks.KeyedMutex
	productLocks *locks.KeyedMutex

	advanceOrderHandler *commands.AdvanceOrderStatusCommandHandler
}

// NewCompositionRoot wires the use cases over gormDB. publisher receives committed stage
// events and may be nil.
func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	publisher ports.EventPublisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (*CompositionRoot, error) {
	c := &CompositionRoot{
		config:       config,
		gormDB:       gormDB,
		uowFactory:   postgres.NewGormUnitOfWorkFactory(gormDB, publisher, logger),
		metrics:      m,
		clock:        clock.System(),
		logger:       logger,
		orderLocks:   locks.NewKeyedMutex("order", config.LockTimeout),
		productLocks: locks.NewKeyedMutex("product", config.LockTimeout),
	}

	registry, err := services.DefaultStageActionRegistry()
	if err != nil {
		return nil, err
	}
	engine, err := services.NewTransitionEngine(registry, c.clock)
	if err != nil {
		return nil, err
	}

	// HTTP, payment events and the expiry job share this handler and its locks.
	c.advanceOrderHandler, err = commands.NewAdvanceOrderStatusCommandHandler(
		c.uowFactoryFunc(),
		engine,
		c.orderLocks,
		c.productLocks,
		c.clock,
		config.RetryPolicy(),
		m,
		logger,
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() *commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	h := commands.NewCreateOrderCommandHandler(f, c.clock, c.logger)
	return &h
}

func (c *CompositionRoot) AdvanceOrderStatusCommandHandler() *commands.AdvanceOrderStatusCommandHandler {
	return c.advanceOrderHandler
}

func (c *CompositionRoot) CreateRestockStorageLocationCommandHandler() *commands.RestockStorageLocationCommandHandler {
	var f commands.StockUoWFactory = FuncStockUoWFactory(func() commands.StockUoW {
		return c.uowFactory.Create()
	})
	h := commands.NewRestockStorageLocationCommandHandler(f, c.productLocks, c.clock, c.config.RetryPolicy(), c.logger)
	return &h
}

func (c *CompositionRoot) CreateExpireUnpaidOrdersCommandHandler() *commands.ExpireUnpaidOrdersCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	h := commands.NewExpireUnpaidOrdersCommandHandler(f, c.advanceOrderHandler, c.clock, c.logger)
	return &h
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetStockLevelsQueryHandler() queries.GetStockLevelsQueryHandler {
	return queries.NewGetStockLevelsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() (*httpadapter.Server, error) {
	return httpadapter.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.advanceOrderHandler,
		c.CreateRestockStorageLocationCommandHandler(),
		c.CreateGetOrderQueryHandler(),
		c.CreateGetStockLevelsQueryHandler(),
	)
}

func (c *CompositionRoot) CreatePaymentConsumer() (*paymentamqp.PaymentConsumer, error) {
	return paymentamqp.NewPaymentConsumer(c.advanceOrderHandler, c.logger)
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	return jobs.NewJobManager(c.CreateExpireUnpaidOrdersCommandHandler(), jobs.Config{
		ExpirySchedule: c.config.ExpirySchedule,
		PaymentTTL:     c.config.PaymentTTL,
	}, c.logger)
}

func (c *CompositionRoot) uowFactoryFunc() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncStockUoWFactory func() commands.StockUoW

func (f FuncStockUoWFactory) Create() commands.StockUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
