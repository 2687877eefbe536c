package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/adapters/out/postgres/pgerrors"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrHistoryConflict is returned when the stored stage history is longer than the one
// being saved, meaning the aggregate was loaded before another writer appended a stage.
var ErrHistoryConflict = errors.New("stage history changed since the order was loaded")

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db        *gorm.DB
	tracker   aggregateTracker
	forUpdate bool
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(aggregate *order.Order)
}

// NewGormOrderRepository creates a new GORM order repository. With forUpdate set, Get
// locks the order row with FOR UPDATE NOWAIT, which only makes sense inside a transaction.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker, forUpdate bool) *GormOrderRepository {
	return &GormOrderRepository{
		db:        db,
		tracker:   tracker,
		forUpdate: forUpdate,
	}
}

// Save upserts the order row and inserts lines and stage records that are not stored yet.
// Existing stage rows are never updated or deleted.
func (r *GormOrderRepository) Save(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	var stored int64
	if err := db.Model(&StageDTO{}).Where("order_id = ?", dto.ID).Count(&stored).Error; err != nil {
		return pgerrors.Classify("count order stages", err)
	}
	if stored > int64(len(dto.Stages)) {
		return errs.NewRetryableError("save order "+aggregate.ID().String(), ErrHistoryConflict)
	}

	err := db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "status_entered_at", "updated_at", "metadata"}),
		}).
		Create(&dto).Error
	if err != nil {
		if pgerrors.IsUniqueViolation(err) {
			return fmt.Errorf("order number %s already exists: %w", dto.Number, err)
		}
		return pgerrors.Classify("save order", err)
	}

	if err = db.Clauses(clause.OnConflict{DoNothing: true}).Create(&dto.Lines).Error; err != nil {
		return pgerrors.Classify("save order lines", err)
	}

	if newStages := dto.Stages[stored:]; len(newStages) > 0 {
		if err = db.Create(&newStages).Error; err != nil {
			if pgerrors.IsUniqueViolation(err) {
				return errs.NewRetryableError("save order "+aggregate.ID().String(), ErrHistoryConflict)
			}
			return pgerrors.Classify("save order stages", err)
		}
	}

	r.tracker.TrackAggregate(aggregate)
	return nil
}

// Get loads an order with its lines and full stage history.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	if r.forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
	}

	var dto OrderDTO
	err := db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, pgerrors.Classify("load order", err)
	}

	return toDomain(dto)
}

// FindStaleInStatus returns ids of orders whose current status is status and was
// entered before enteredBefore, oldest first.
func (r *GormOrderRepository) FindStaleInStatus(
	ctx context.Context,
	status order.Status,
	enteredBefore time.Time,
	limit int,
) ([]kernel.UUID, error) {
	var raw []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("status = ? AND status_entered_at < ?", status.String(), enteredBefore).
		Order("status_entered_at, id").
		Limit(limit).
		Pluck("id", &raw).Error
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(raw))
	for _, id := range raw {
		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		ids = append(ids, orderID)
	}
	return ids, nil
}
