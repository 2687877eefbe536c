// Package tracking keeps the aggregates saved during a unit of work and dispatches
// their domain events once the unit of work has committed. Both the PostgreSQL and
// the in-memory unit of work embed a Tracker.
package tracking

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"

	"github.com/rs/zerolog"
)

type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate *order.Order
}

// Tracker collects saved orders. It is not safe for concurrent use; a unit of work
// belongs to one goroutine.
type Tracker struct {
	publisher  ports.EventPublisher
	logger     zerolog.Logger
	aggregates []trackedAggregate
}

// NewTracker creates a tracker. A nil publisher drops events after clearing them.
func NewTracker(publisher ports.EventPublisher, logger zerolog.Logger) *Tracker {
	return &Tracker{publisher: publisher, logger: logger}
}

// TrackAggregate registers an order saved in the current unit of work. Saving the same
// order twice keeps one entry.
func (t *Tracker) TrackAggregate(aggregate *order.Order) {
	for _, tracked := range t.aggregates {
		if tracked.ID.IsEqual(aggregate.ID()) {
			return
		}
	}
	t.aggregates = append(t.aggregates, trackedAggregate{ID: aggregate.ID(), Aggregate: aggregate})
}

// Tracked returns the number of tracked aggregates.
func (t *Tracker) Tracked() int {
	return len(t.aggregates)
}

// Dispatch publishes pending events of every tracked order in the order they were
// raised, clears them from the aggregates and forgets the aggregates. The transaction
// is already committed, so publish failures are logged and not returned.
func (t *Tracker) Dispatch(ctx context.Context) {
	for _, tracked := range t.aggregates {
		for _, event := range tracked.Aggregate.DomainEvents() {
			if t.publisher == nil {
				continue
			}
			if err := t.publisher.Publish(ctx, event); err != nil {
				t.logger.Error().Err(err).
					Str("order_id", event.OrderID.String()).
					Str("to", event.To.String()).
					Msg("failed to publish stage event")
			}
		}
		tracked.Aggregate.ClearDomainEvents()
	}
	t.Reset()
}

// Reset forgets tracked aggregates without dispatching, used on rollback. Pending events
// stay on the aggregates.
func (t *Tracker) Reset() {
	t.aggregates = nil
}
