package inventoryrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/adapters/out/postgres/pgerrors"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormStorageLocationRepository implements ports.StorageLocationRepository with an
// optimistic version check on every write.
type GormStorageLocationRepository struct {
	db *gorm.DB
}

func NewGormStorageLocationRepository(db *gorm.DB) *GormStorageLocationRepository {
	return &GormStorageLocationRepository{db: db}
}

// FindCandidateLocations returns every location of sku ordered by location code.
func (r *GormStorageLocationRepository) FindCandidateLocations(
	ctx context.Context,
	sku string,
) ([]*inventory.StorageLocation, error) {
	var dtos []StorageLocationDTO
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("location_code, id").
		Find(&dtos).Error
	if err != nil {
		return nil, pgerrors.Classify("load storage locations", err)
	}

	locations := make([]*inventory.StorageLocation, 0, len(dtos))
	for _, dto := range dtos {
		loc, locErr := locationToDomain(dto)
		if locErr != nil {
			return nil, locErr
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func (r *GormStorageLocationRepository) Get(ctx context.Context, id kernel.UUID) (*inventory.StorageLocation, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, id.String(), "id = ?", id.Bytes())
}

func (r *GormStorageLocationRepository) FindByCode(
	ctx context.Context,
	sku, code string,
) (*inventory.StorageLocation, error) {
	return r.first(ctx, sku+"@"+code, "sku = ? AND location_code = ?", sku, code)
}

func (r *GormStorageLocationRepository) first(
	ctx context.Context,
	key string,
	query string,
	args ...any,
) (*inventory.StorageLocation, error) {
	var dto StorageLocationDTO
	if err := r.db.WithContext(ctx).Where(query, args...).First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("storage location", key)
		}
		return nil, pgerrors.Classify("load storage location", err)
	}
	return locationToDomain(dto)
}

// Persist inserts a location with version 0 as version 1, or updates a stored one only
// if its version still matches, bumping it. Losing either race returns a retryable
// ports.ErrConcurrentModification.
func (r *GormStorageLocationRepository) Persist(ctx context.Context, loc *inventory.StorageLocation) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	dto := locationFromDomain(loc)
	db := r.db.WithContext(ctx)

	if dto.Version == 0 {
		dto.Version = 1
		if err := db.Create(&dto).Error; err != nil {
			if pgerrors.IsUniqueViolation(err) {
				return ports.NewConcurrentModificationError("storage location " + loc.Code())
			}
			return pgerrors.Classify("insert storage location", err)
		}
		return nil
	}

	result := db.Model(&StorageLocationDTO{}).
		Where("id = ? AND version = ?", dto.ID, dto.Version).
		Updates(map[string]any{
			"zone":              dto.Zone,
			"total":             dto.Total,
			"reserved":          dto.Reserved,
			"last_restocked_at": dto.LastRestockedAt,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		if pgerrors.IsCheckViolation(result.Error) {
			return fmt.Errorf("storage location %s: %w", loc.Code(), result.Error)
		}
		return pgerrors.Classify("update storage location", result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.NewConcurrentModificationError("storage location " + loc.Code())
	}
	return nil
}

// GormReservationRepository implements ports.ReservationRepository.
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Save stores a reservation and its allocations. An order holds at most one reservation.
func (r *GormReservationRepository) Save(ctx context.Context, reservation inventory.Reservation) error {
	if err := reservation.Validate(); err != nil {
		return err
	}

	dto := reservationFromDomain(reservation)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgerrors.IsUniqueViolation(err) {
			return fmt.Errorf("reservation for order %s already exists: %w", reservation.OrderID(), err)
		}
		return pgerrors.Classify("save reservation", err)
	}
	return nil
}

func (r *GormReservationRepository) Get(ctx context.Context, orderID kernel.UUID) (inventory.Reservation, error) {
	if err := orderID.Validate(); err != nil {
		return inventory.Reservation{}, err
	}

	var dto ReservationDTO
	err := r.db.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&dto, "order_id = ?", orderID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inventory.Reservation{}, errs.NewObjectNotFoundError("reservation", orderID.String())
		}
		return inventory.Reservation{}, pgerrors.Classify("load reservation", err)
	}

	return reservationToDomain(dto)
}

// Delete removes the reservation; allocations go with it through the foreign key cascade.
func (r *GormReservationRepository) Delete(ctx context.Context, orderID kernel.UUID) error {
	err := r.db.WithContext(ctx).Delete(&ReservationDTO{}, "order_id = ?", orderID.Bytes()).Error
	return pgerrors.Classify("delete reservation", err)
}
