// Package ports defines the contracts between the fulfillment core and its
// infrastructure: repositories, the unit of work and the event publisher.
package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Save upserts the full aggregate state. Stage records already stored are never
	// rewritten; only records appended since the last save are inserted.
	Save(ctx context.Context, aggregate *order.Order) error

	// Get loads an order with its lines and full stage history.
	// Returns errs.ObjectNotFoundError if the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// FindStaleInStatus returns up to limit IDs of orders whose current status is status
	// and whose last stage was entered before the given time, oldest first.
	//
	// Example:
	//   ids, err := repo.FindStaleInStatus(ctx, order.AwaitingPayment, now.Add(-30*time.Minute), 100)
	FindStaleInStatus(ctx context.Context, status order.Status, enteredBefore time.Time, limit int) ([]kernel.UUID, error)
}
