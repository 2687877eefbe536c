package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads an order and everything shown with it. The status column
// of orders mirrors the last stage row, so the next statuses are derived from it.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single order queries.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns the order view or errs.ObjectNotFoundError.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (views.OrderDetails, error) {
	if err := query.Validate(); err != nil {
		return views.OrderDetails{}, err
	}

	db := h.db.WithContext(ctx)
	id := query.OrderID().Bytes()

	details, err := h.header(db, query.OrderID())
	if err != nil {
		return views.OrderDetails{}, err
	}

	details.Lines, err = scanAll(db.Raw(`
		SELECT sku, name, unit_price, quantity
		FROM order_lines
		WHERE order_id = ?
		ORDER BY position
	`, id), func(rows *sql.Rows) (views.Line, error) {
		var l views.Line
		if scanErr := rows.Scan(&l.SKU, &l.Name, &l.UnitPrice, &l.Quantity); scanErr != nil {
			return l, scanErr
		}
		l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		return l, nil
	})
	if err != nil {
		return views.OrderDetails{}, fmt.Errorf("read order lines: %w", err)
	}
	details.Total = decimal.Zero
	for _, l := range details.Lines {
		details.Total = details.Total.Add(l.Subtotal)
	}

	details.History, err = scanAll(db.Raw(`
		SELECT status, entered_at, actor, note
		FROM order_stages
		WHERE order_id = ?
		ORDER BY seq
	`, id), func(rows *sql.Rows) (views.Stage, error) {
		var (
			s      views.Stage
			status string
		)
		if err := rows.Scan(&status, &s.EnteredAt, &s.Actor, &s.Note); err != nil {
			return s, err
		}
		s.EnteredAt = s.EnteredAt.UTC()
		parsed, err := order.ParseStatus(status)
		s.Status = parsed
		return s, err
	})
	if err != nil {
		return views.OrderDetails{}, fmt.Errorf("read order stages: %w", err)
	}

	details.Allocations, err = scanAll(db.Raw(`
		SELECT sku, location_code, quantity
		FROM reservation_allocations
		WHERE order_id = ?
		ORDER BY position
	`, id), func(rows *sql.Rows) (views.Allocation, error) {
		var a views.Allocation
		return a, rows.Scan(&a.SKU, &a.LocationCode, &a.Quantity)
	})
	if err != nil {
		return views.OrderDetails{}, fmt.Errorf("read reservation: %w", err)
	}

	return details, nil
}

func (h GetOrderQueryHandler) header(db *gorm.DB, orderID kernel.UUID) (views.OrderDetails, error) {
	var (
		details    views.OrderDetails
		id         uuid.UUID
		customerID uuid.UUID
		status     string
		metadata   datatypes.JSONType[map[string]string]
	)

	err := db.Raw(`
		SELECT
			id,
			number,
			customer_id,
			status,
			address_country,
			address_city,
			address_street,
			address_building,
			address_apartment,
			address_comment,
			metadata,
			created_at,
			updated_at
		FROM orders
		WHERE id = ?
	`, orderID.Bytes()).Row().Scan(
		&id,
		&details.Number,
		&customerID,
		&status,
		&details.Address.Country,
		&details.Address.City,
		&details.Address.Street,
		&details.Address.Building,
		&details.Address.Apartment,
		&details.Address.Comment,
		&metadata,
		&details.CreatedAt,
		&details.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return views.OrderDetails{}, errs.NewObjectNotFoundError("order", orderID.String())
		}
		return views.OrderDetails{}, fmt.Errorf("read order: %w", err)
	}

	if details.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return views.OrderDetails{}, err
	}
	if details.CustomerID, err = kernel.UUIDFromBytes(customerID[:]); err != nil {
		return views.OrderDetails{}, err
	}
	if details.Status, err = order.ParseStatus(status); err != nil {
		return views.OrderDetails{}, err
	}
	details.NextStatuses = details.Status.NextStatuses()
	details.Metadata = metadata.Data()
	if details.Metadata == nil {
		details.Metadata = map[string]string{}
	}
	details.CreatedAt = details.CreatedAt.UTC()
	details.UpdatedAt = details.UpdatedAt.UTC()

	return details, nil
}

// scanAll runs a raw query and maps every row. An empty result is an empty, non-nil slice.
func scanAll[T any](query *gorm.DB, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := query.Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, scanErr := scan(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
