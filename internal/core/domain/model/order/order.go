package order

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrInvalidStageSequence is returned when a stage record does not extend the history
	// along a validated transition, or a restored history is not a valid path.
	ErrInvalidStageSequence = errors.New("invalid stage sequence")

	// ErrNoLines is returned when an order is created without lines.
	ErrNoLines = errs.NewValueIsRequiredError("lines")
)

// Order is the aggregate root of the fulfillment workflow.
//
// Order follows these invariants:
//   - It has at least one line; lines never change after creation
//   - The stage history is never empty, starts with Initialized and only grows
//   - Status() is always the status of the last stage record
//   - Every consecutive pair of stage records is an allowed transition
//   - Total() is derived from the lines and cannot be set
//
// Status has no setter. The only mutation is AppendStage, which requires a Transition
// validated against the transition table.
type Order struct {
	id         kernel.UUID
	number     string
	customerID kernel.UUID
	address    kernel.Address
	lines      []Line
	metadata   map[string]string
	history    []StageRecord
	createdAt  time.Time
	updatedAt  time.Time

	events []StageEntered

	isConstructed bool
}

// NewOrder creates an order in the Initialized stage.
//
// Parameters:
//   - id: order identifier
//   - number: human readable order number, see NewNumber
//   - customerID: owner of the order; also recorded as actor of the first stage
//   - address: delivery address
//   - lines: at least one line
//   - metadata: free-form string pairs, keys must not be blank; may be nil
//   - createdAt: creation time, used for the first stage record
//
// Returns:
//   - *Order: the created order, with one StageEntered event pending
//   - error: all validation failures joined
//
// Example:
//
//	now := clk.Now()
//	o, err := order.NewOrder(kernel.NewUUID(), order.NewNumber(now), customerID, addr, lines, nil, now)
func NewOrder(
	id kernel.UUID,
	number string,
	customerID kernel.UUID,
	address kernel.Address,
	lines []Line,
	metadata map[string]string,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     createdAt.UTC(),
		updatedAt:     createdAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setCustomerID(customerID),
		o.setAddress(address),
		o.setLines(lines),
		o.setMetadata(metadata),
	); err != nil {
		return nil, err
	}

	first, err := NewStageRecord(Initialized, createdAt, customerID.String(), "")
	if err != nil {
		return nil, err
	}
	o.history = []StageRecord{first}
	o.raise(Unknown, first)

	return o, nil
}

// RestoreOrder rebuilds an order from persisted state. The history must be a valid path
// through the transition table starting at Initialized with non-decreasing timestamps.
// No events are raised.
func RestoreOrder(
	id kernel.UUID,
	number string,
	customerID kernel.UUID,
	address kernel.Address,
	lines []Line,
	metadata map[string]string,
	history []StageRecord,
	createdAt time.Time,
	updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		createdAt:     createdAt.UTC(),
		updatedAt:     updatedAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setNumber(number),
		o.setCustomerID(customerID),
		o.setAddress(address),
		o.setLines(lines),
		o.setMetadata(metadata),
		o.setHistory(history),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// NewNumber generates an order number of the form ORD-YYYYMMDD-XXXXXXXX from the
// creation date and eight random hex characters.
func NewNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102"), suffix)
}

// Validate ensures the order was created through NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order identifier.
func (o *Order) ID() kernel.UUID { return o.id }

// Number returns the human readable order number.
func (o *Order) Number() string { return o.number }

// CustomerID returns the owner of the order.
func (o *Order) CustomerID() kernel.UUID { return o.customerID }

// Address returns the delivery address.
func (o *Order) Address() kernel.Address { return o.address }

// Lines returns a copy of the order lines in stored order.
func (o *Order) Lines() []Line {
	lines := make([]Line, len(o.lines))
	copy(lines, o.lines)
	return lines
}

// Metadata returns a copy of the metadata.
func (o *Order) Metadata() map[string]string {
	return maps.Clone(o.metadata)
}

// History returns a copy of the stage history, oldest first.
func (o *Order) History() []StageRecord {
	history := make([]StageRecord, len(o.history))
	copy(history, o.history)
	return history
}

// LastStage returns the most recent stage record.
func (o *Order) LastStage() StageRecord {
	return o.history[len(o.history)-1]
}

// Status returns the current status, which is the status of the last stage record.
func (o *Order) Status() Status {
	if len(o.history) == 0 {
		return Unknown
	}
	return o.LastStage().Status()
}

// Total returns the sum of line subtotals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// QuantityBySKU sums line quantities per SKU. Several lines may reference the same SKU.
func (o *Order) QuantityBySKU() map[string]int {
	quantities := make(map[string]int, len(o.lines))
	for _, line := range o.lines {
		quantities[line.SKU()] += line.Quantity()
	}
	return quantities
}

// CreatedAt returns the creation time.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the time of the last stage change.
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// AppendStage moves the order along tr by appending record to the history.
//
// This method enforces the following rules:
//   - tr must come from NewTransition and start at the current status
//   - record must be for tr.To()
//   - record must not be older than the current last record
//
// On any violation the order is left unchanged and an error wrapping
// ErrInvalidStageSequence is returned. The history slice is rebuilt, never modified
// in place, so copies handed out earlier stay intact.
//
// Example:
//
//	tr, err := order.NewTransition(o.Status(), order.AwaitingPayment)
//	record, err := order.NewStageRecord(order.AwaitingPayment, now, "checkout", "")
//	err = o.AppendStage(tr, record)
func (o *Order) AppendStage(tr Transition, record StageRecord) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if err := tr.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStageSequence, err)
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStageSequence, err)
	}

	current := o.LastStage()
	if tr.From() != current.Status() {
		return fmt.Errorf("%w: transition %s does not start at current status %s",
			ErrInvalidStageSequence, tr, current.Status())
	}
	if record.Status() != tr.To() {
		return fmt.Errorf("%w: record status %s does not match transition %s",
			ErrInvalidStageSequence, record.Status(), tr)
	}
	if record.EnteredAt().Before(current.EnteredAt()) {
		return fmt.Errorf("%w: record at %s is older than last stage at %s",
			ErrInvalidStageSequence, record.EnteredAt().Format(time.RFC3339Nano), current.EnteredAt().Format(time.RFC3339Nano))
	}

	history := make([]StageRecord, len(o.history), len(o.history)+1)
	copy(history, o.history)
	o.history = append(history, record)
	o.updatedAt = record.EnteredAt()
	o.raise(tr.From(), record)

	return nil
}

// DomainEvents returns the events raised since the last ClearDomainEvents.
func (o *Order) DomainEvents() []StageEntered {
	events := make([]StageEntered, len(o.events))
	copy(events, o.events)
	return events
}

// ClearDomainEvents drops pending events after they were dispatched.
func (o *Order) ClearDomainEvents() {
	o.events = nil
}

func (o *Order) raise(from Status, record StageRecord) {
	o.events = append(o.events, StageEntered{
		OrderID:     o.id,
		OrderNumber: o.number,
		From:        from,
		To:          record.Status(),
		Actor:       record.Actor(),
		Note:        record.Note(),
		OccurredAt:  record.EnteredAt(),
	})
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return errs.NewValueIsRequiredError("number")
	}
	o.number = number
	return nil
}

func (o *Order) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer id", err)
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setAddress(address kernel.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}
	o.address = address
	return nil
}

func (o *Order) setLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	for i, line := range lines {
		if err := line.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	o.lines = make([]Line, len(lines))
	copy(o.lines, lines)
	return nil
}

func (o *Order) setMetadata(metadata map[string]string) error {
	for key := range metadata {
		if strings.TrimSpace(key) == "" {
			return errs.NewValueIsInvalidErrorWithCause("metadata is invalid", errors.New("blank key"))
		}
	}
	o.metadata = maps.Clone(metadata)
	if o.metadata == nil {
		o.metadata = map[string]string{}
	}
	return nil
}

func (o *Order) setHistory(history []StageRecord) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: history is empty", ErrInvalidStageSequence)
	}
	for i, record := range history {
		if err := record.Validate(); err != nil {
			return fmt.Errorf("%w: record %d: %w", ErrInvalidStageSequence, i, err)
		}
		if i == 0 {
			if record.Status() != Initialized {
				return fmt.Errorf("%w: history starts with %s", ErrInvalidStageSequence, record.Status())
			}
			continue
		}
		prev := history[i-1]
		if !prev.Status().CanTransitionTo(record.Status()) {
			return fmt.Errorf("%w: record %d: %w", ErrInvalidStageSequence, i,
				&InvalidTransitionError{From: prev.Status(), To: record.Status()})
		}
		if record.EnteredAt().Before(prev.EnteredAt()) {
			return fmt.Errorf("%w: record %d is older than record %d", ErrInvalidStageSequence, i, i-1)
		}
	}
	o.history = make([]StageRecord, len(history))
	copy(o.history, history)
	return nil
}
