package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
)

// EventPublisher delivers order stage events to other services. It is called after the
// transaction that produced the event committed, so a failure cannot undo the change.
type EventPublisher interface {
	Publish(ctx context.Context, event order.StageEntered) error
}
