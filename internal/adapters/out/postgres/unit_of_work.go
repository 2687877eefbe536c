// Package postgres provides the GORM implementation of the unit of work.
//
// One unit of work is one database transaction. Repositories handed out while a
// transaction is active run inside it; before Begin or after the transaction ends they
// use the plain connection. Orders saved during the transaction are tracked and their
// stage events are dispatched only after a successful commit.
//
// Example:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	o, err := uow.OrderRepository().Get(ctx, orderID)
//	// ... mutate o
//	if err := uow.OrderRepository().Save(ctx, o); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
package postgres

import (
	"context"

	"fulfillment/internal/adapters/out/postgres/inventoryrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/pgerrors"
	"fulfillment/internal/adapters/out/tracking"
	"fulfillment/internal/core/ports"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	publisher ports.EventPublisher
	logger    zerolog.Logger
}

// NewGormUnitOfWorkFactory creates a factory. publisher receives stage events after
// commit and may be nil.
func NewGormUnitOfWorkFactory(db *gorm.DB, publisher ports.EventPublisher, logger zerolog.Logger) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{
		db:        db,
		publisher: publisher,
		logger:    logger.With().Str("component", "unit_of_work").Logger(),
	}
}

// Create returns a fresh unit of work with its own transaction state and tracker.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:      f.db,
		tracker: tracking.NewTracker(f.publisher, f.logger),
	}
}

// GormUnitOfWork coordinates one transaction across the order, storage location and
// reservation repositories.
type GormUnitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	tracker *tracking.Tracker
}

// Begin starts the transaction. Calling Begin twice does not nest transactions.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return pgerrors.Classify("begin transaction", tx.Error)
	}
	uow.tx = tx
	return nil
}

// Commit makes all changes permanent and then publishes the stage events of every saved
// order. Serialization failures and deadlocks are returned as retryable errors.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.tracker.Reset()
		return pgerrors.Classify("commit", err)
	}

	uow.tracker.Dispatch(ctx)
	return nil
}

// Rollback discards the transaction and forgets tracked orders.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.tracker.Reset()
	return err
}

// OrderRepository returns an order repository bound to the current transaction. Inside a
// transaction, loaded orders are row-locked until commit or rollback.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow.tracker, uow.tx != nil)
}

func (uow *GormUnitOfWork) StorageLocationRepository() ports.StorageLocationRepository {
	return inventoryrepo.NewGormStorageLocationRepository(uow.conn())
}

func (uow *GormUnitOfWork) ReservationRepository() ports.ReservationRepository {
	return inventoryrepo.NewGormReservationRepository(uow.conn())
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
