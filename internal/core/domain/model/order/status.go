package order

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status is an order lifecycle stage. The numeric values carry no meaning beyond identity;
// persistence and the API use the names returned by String.
//
// Allowed transitions:
//
//	Initialized ──> AwaitingPayment ──> PaymentProcessing ──> PaymentConfirmed ──> Picking ──> Packing
//	                      ^                     │
//	                      └─── PaymentFailed <──┘
//
//	Packing ──> ReadyForDelivery ──> OutForDelivery ──> Delivered
//
// Every non-terminal status except PaymentProcessing and OutForDelivery may also
// move to Cancelled. Cancelled and Delivered are terminal.
type Status int

const (
	// Unknown represents an invalid or uninitialized status.
	Unknown Status = iota
	// Initialized is the stage every order is created in.
	Initialized
	// AwaitingPayment waits for the customer to start paying.
	AwaitingPayment
	// PaymentProcessing means a payment attempt is in flight.
	PaymentProcessing
	// PaymentFailed means the last payment attempt was declined; it may be retried.
	PaymentFailed
	// PaymentConfirmed means the order is paid.
	PaymentConfirmed
	// Picking means stock is reserved and being picked in the warehouse.
	Picking
	// Packing means picked items are being packed.
	Packing
	// ReadyForDelivery means the parcel waits for a courier.
	ReadyForDelivery
	// OutForDelivery means the parcel left the warehouse. The order can no longer be cancelled.
	OutForDelivery
	// Delivered is terminal.
	Delivered
	// Cancelled is terminal.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:           "Unknown",
		Initialized:       "Initialized",
		AwaitingPayment:   "AwaitingPayment",
		PaymentProcessing: "PaymentProcessing",
		PaymentFailed:     "PaymentFailed",
		PaymentConfirmed:  "PaymentConfirmed",
		Picking:           "Picking",
		Packing:           "Packing",
		ReadyForDelivery:  "ReadyForDelivery",
		OutForDelivery:    "OutForDelivery",
		Delivered:         "Delivered",
		Cancelled:         "Cancelled",
	}
}

// getTransitions returns the allowed targets per status. Target order is stable and is
// the order NextStatuses reports them in.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // Unknown has no transitions
	return map[Status][]Status{
		Initialized:       {AwaitingPayment, Cancelled},
		AwaitingPayment:   {PaymentProcessing, Cancelled},
		PaymentProcessing: {PaymentConfirmed, PaymentFailed},
		PaymentFailed:     {AwaitingPayment, Cancelled},
		PaymentConfirmed:  {Picking, Cancelled},
		Picking:           {Packing, Cancelled},
		Packing:           {ReadyForDelivery, Cancelled},
		ReadyForDelivery:  {OutForDelivery, Cancelled},
		OutForDelivery:    {Delivered},
		Delivered:         {},
		Cancelled:         {},
	}
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		Initialized,
		AwaitingPayment,
		PaymentProcessing,
		PaymentFailed,
		PaymentConfirmed,
		Picking,
		Packing,
		ReadyForDelivery,
		OutForDelivery,
		Delivered,
		Cancelled,
	}
}

// ParseStatus converts a status name (as produced by String) into a Status.
//
// Returns:
//   - the matching Status
//   - ValueIsInvalidError for unknown names, including "Unknown"
func ParseStatus(name string) (Status, error) {
	for s, str := range getStatusStrings() {
		if s != Unknown && str == name {
			return s, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", name))
}

// Validate checks that s is one of the declared statuses other than Unknown.
func (s Status) Validate() error {
	if _, ok := getTransitions()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the status name, or "Unknown" for values outside the enumeration.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// NextStatuses returns the statuses reachable from s in one transition.
// The result is a fresh slice; it is empty for terminal and invalid statuses.
//
// Example:
//
//	order.Picking.NextStatuses() // [Packing Cancelled]
func (s Status) NextStatuses() []Status {
	targets := getTransitions()[s]
	next := make([]Status, len(targets))
	copy(next, targets)
	return next
}

// CanTransitionTo reports whether target is directly reachable from s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, candidate := range getTransitions()[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s Status) IsTerminal() bool {
	targets, ok := getTransitions()[s]
	return ok && len(targets) == 0
}

// HoldsReservation reports whether an order in s may have stock reserved for it:
// reservation happens on entering Picking and lasts until delivery or cancellation.
func (s Status) HoldsReservation() bool {
	switch s { //nolint:exhaustive // all other statuses hold no stock
	case Picking, Packing, ReadyForDelivery, OutForDelivery:
		return true
	default:
		return false
	}
}
