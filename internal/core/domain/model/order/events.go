package order

import (
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

// StageEntered is raised by Order.AppendStage. Events stay on the aggregate until the
// unit of work that saved it commits and dispatches them.
type StageEntered struct {
	OrderID     kernel.UUID
	OrderNumber string
	From        Status
	To          Status
	Actor       string
	Note        string
	OccurredAt  time.Time
}
