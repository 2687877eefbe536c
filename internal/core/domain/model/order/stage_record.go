package order

import (
	"errors"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrStageRecordIsNotConstructed is returned when a StageRecord was not created via NewStageRecord.
var ErrStageRecordIsNotConstructed = errors.New("StageRecord must be created via NewStageRecord constructor")

// StageRecord is one entry of an order's stage history: the status entered, when,
// who triggered it and an optional note. Records are immutable.
type StageRecord struct {
	status    Status
	enteredAt time.Time
	actor     string
	note      string
	guard     guard.ConstructorGuard
}

// NewStageRecord creates a stage history entry. Timestamps are stored in UTC.
func NewStageRecord(status Status, enteredAt time.Time, actor, note string) (StageRecord, error) {
	if err := status.Validate(); err != nil {
		return StageRecord{}, err
	}
	if enteredAt.IsZero() {
		return StageRecord{}, errs.NewValueIsRequiredError("entered at")
	}

	return StageRecord{
		status:    status,
		enteredAt: enteredAt.UTC(),
		actor:     strings.TrimSpace(actor),
		note:      strings.TrimSpace(note),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate returns ErrStageRecordIsNotConstructed for the zero value.
func (r StageRecord) Validate() error {
	return r.guard.Validate(ErrStageRecordIsNotConstructed)
}

// Status returns the entered status.
func (r StageRecord) Status() Status { return r.status }

// EnteredAt returns the transition timestamp.
func (r StageRecord) EnteredAt() time.Time { return r.enteredAt }

// Actor returns who or what triggered the transition, empty if unknown.
func (r StageRecord) Actor() string { return r.actor }

// Note returns the free-text note, empty if none.
func (r StageRecord) Note() string { return r.note }
