package queries

import (
	"context"
	"database/sql"

	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetStockLevelsQueryHandler reads stock per location for one product, ordered by
// location code. This is the order in which reservations consume stock.
//
// Example:
//
//	query, _ := NewGetStockLevelsQuery("SKU-1")
//	levels, err := NewGetStockLevelsQueryHandler(db).Handle(ctx, query)
type GetStockLevelsQueryHandler struct {
	db *gorm.DB
}

func NewGetStockLevelsQueryHandler(db *gorm.DB) GetStockLevelsQueryHandler {
	return GetStockLevelsQueryHandler{db: db}
}

// Handle returns an empty slice for an unknown product.
func (h GetStockLevelsQueryHandler) Handle(ctx context.Context, query GetStockLevelsQuery) ([]views.StockLevel, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	return scanAll(h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			sku,
			location_code,
			zone,
			total,
			reserved,
			last_restocked_at
		FROM storage_locations
		WHERE sku = ?
		ORDER BY location_code, id
	`, query.SKU()), func(rows *sql.Rows) (views.StockLevel, error) {
		var (
			level views.StockLevel
			id    uuid.UUID
		)
		err := rows.Scan(
			&id,
			&level.SKU,
			&level.LocationCode,
			&level.Zone,
			&level.Total,
			&level.Reserved,
			&level.LastRestockedAt,
		)
		if err != nil {
			return level, err
		}
		if level.LocationID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return level, err
		}
		level.Available = level.Total - level.Reserved
		level.LastRestockedAt = level.LastRestockedAt.UTC()
		return level, nil
	})
}
