package order

import (
	"errors"
	"fmt"

	"fulfillment/internal/pkg/guard"
)

var (
	// ErrInvalidTransition is the sentinel for status changes not allowed by the transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTransitionIsNotConstructed is returned when a Transition was not created via NewTransition.
	ErrTransitionIsNotConstructed = errors.New("Transition must be created via NewTransition constructor")
)

// InvalidTransitionError reports a requested status that is not reachable from the current one.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Transition is proof that a from/to pair was checked against the transition table.
// Order.AppendStage only accepts stage records accompanied by a Transition, so status
// can only change along an allowed edge.
type Transition struct {
	from  Status
	to    Status
	guard guard.ConstructorGuard
}

// NewTransition validates the edge from -> to.
//
// Returns:
//   - Transition: the validated edge
//   - *InvalidTransitionError if to is not among from.NextStatuses()
//
// Example:
//
//	tr, err := order.NewTransition(o.Status(), order.Picking)
//	if errors.Is(err, order.ErrInvalidTransition) {
//	    // reject the request, the order is untouched
//	}
func NewTransition(from, to Status) (Transition, error) {
	if !from.CanTransitionTo(to) {
		return Transition{}, &InvalidTransitionError{From: from, To: to}
	}
	return Transition{from: from, to: to, guard: guard.NewConstructorGuard()}, nil
}

// Validate returns ErrTransitionIsNotConstructed for the zero value.
func (t Transition) Validate() error {
	return t.guard.Validate(ErrTransitionIsNotConstructed)
}

// From returns the source status.
func (t Transition) From() Status { return t.from }

// To returns the target status.
func (t Transition) To() Status { return t.to }

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s", t.from, t.to)
}
