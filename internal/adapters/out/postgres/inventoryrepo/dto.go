// Package inventoryrepo persists storage locations and reservations.
package inventoryrepo

import (
	"time"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// StorageLocationDTO is a row of storage_locations. Version is bumped by every update.
type StorageLocationDTO struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	SKU             string    `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:ux_storage_locations_sku_code,priority:1"`
	LocationCode    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_storage_locations_sku_code,priority:2"`
	Zone            string    `gorm:"type:varchar(64)"`
	Total           int       `gorm:"not null"`
	Reserved        int       `gorm:"not null"`
	Version         int64     `gorm:"not null"`
	LastRestockedAt time.Time `gorm:"not null"`
}

func (StorageLocationDTO) TableName() string {
	return "storage_locations"
}

type ReservationDTO struct {
	OrderID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CreatedAt   time.Time       `gorm:"autoCreateTime:false;not null"`
	Allocations []AllocationDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (ReservationDTO) TableName() string {
	return "reservations"
}

type AllocationDTO struct {
	OrderID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position     int       `gorm:"primaryKey"`
	LocationID   uuid.UUID `gorm:"type:uuid;not null"`
	LocationCode string    `gorm:"type:varchar(64);not null"`
	SKU          string    `gorm:"column:sku;type:varchar(64);not null"`
	Quantity     int       `gorm:"not null"`
}

func (AllocationDTO) TableName() string {
	return "reservation_allocations"
}

func locationFromDomain(loc *inventory.StorageLocation) StorageLocationDTO {
	return StorageLocationDTO{
		ID:              loc.ID().Bytes(),
		SKU:             loc.SKU(),
		LocationCode:    loc.Code(),
		Zone:            loc.Zone(),
		Total:           loc.Total(),
		Reserved:        loc.Reserved(),
		Version:         loc.Version(),
		LastRestockedAt: loc.LastRestockedAt(),
	}
}

func locationToDomain(dto StorageLocationDTO) (*inventory.StorageLocation, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	return inventory.RestoreStorageLocation(
		id, dto.SKU, dto.LocationCode, dto.Zone, dto.Total, dto.Reserved, dto.Version, dto.LastRestockedAt,
	)
}

func reservationFromDomain(r inventory.Reservation) ReservationDTO {
	orderID := r.OrderID().Bytes()
	allocations := make([]AllocationDTO, 0, len(r.Allocations()))
	for i, a := range r.Allocations() {
		allocations = append(allocations, AllocationDTO{
			OrderID:      orderID,
			Position:     i,
			LocationID:   a.LocationID.Bytes(),
			LocationCode: a.LocationCode,
			SKU:          a.SKU,
			Quantity:     a.Quantity,
		})
	}
	return ReservationDTO{OrderID: orderID, CreatedAt: r.CreatedAt(), Allocations: allocations}
}

func reservationToDomain(dto ReservationDTO) (inventory.Reservation, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return inventory.Reservation{}, err
	}

	allocations := make([]inventory.Allocation, 0, len(dto.Allocations))
	for _, a := range dto.Allocations {
		locationID, idErr := kernel.UUIDFromBytes(a.LocationID[:])
		if idErr != nil {
			return inventory.Reservation{}, idErr
		}
		allocations = append(allocations, inventory.Allocation{
			LocationID:   locationID,
			LocationCode: a.LocationCode,
			SKU:          a.SKU,
			Quantity:     a.Quantity,
		})
	}

	return inventory.NewReservation(orderID, allocations, dto.CreatedAt)
}
