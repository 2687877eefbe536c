package services

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/order"
)

var (
	// ErrMissingStageHandler means a status that can be entered has no action bound.
	ErrMissingStageHandler = errors.New("missing stage handler")

	// ErrDuplicateStageHandler means two actions were bound to the same status.
	ErrDuplicateStageHandler = errors.New("duplicate stage handler")
)

// MissingStageHandlerError names the status without an action.
type MissingStageHandlerError struct {
	Status order.Status
}

func (e *MissingStageHandlerError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingStageHandler, e.Status)
}

func (e *MissingStageHandlerError) Unwrap() error { return ErrMissingStageHandler }

// DuplicateStageHandlerError names the status bound twice.
type DuplicateStageHandlerError struct {
	Status order.Status
}

func (e *DuplicateStageHandlerError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateStageHandler, e.Status)
}

func (e *DuplicateStageHandlerError) Unwrap() error { return ErrDuplicateStageHandler }

// StageBinding pairs a status with the action run on entering it.
type StageBinding struct {
	Status order.Status
	Action StageAction
}

// Bind is shorthand for a StageBinding literal.
func Bind(status order.Status, action StageAction) StageBinding {
	return StageBinding{Status: status, Action: action}
}

// StageActionRegistry maps each enterable status to exactly one action.
// It is immutable after construction and safe for concurrent use.
type StageActionRegistry struct {
	actions map[order.Status]StageAction
}

// NewStageActionRegistry builds a registry and fails fast on configuration errors.
//
// Every status except Initialized must be bound, because Initialized is only ever the
// creation stage and is never entered through a transition.
//
// Returns:
//   - *DuplicateStageHandlerError if a status is bound twice
//   - *MissingStageHandlerError for the first status left unbound
//   - ValueIsInvalidError for an invalid status or a nil action
func NewStageActionRegistry(bindings ...StageBinding) (*StageActionRegistry, error) {
	actions := make(map[order.Status]StageAction, len(bindings))
	for _, b := range bindings {
		if err := b.Status.Validate(); err != nil {
			return nil, err
		}
		if b.Action == nil {
			return nil, fmt.Errorf("stage action for %s: %w", b.Status, ErrMissingStageHandler)
		}
		if _, ok := actions[b.Status]; ok {
			return nil, &DuplicateStageHandlerError{Status: b.Status}
		}
		actions[b.Status] = b.Action
	}

	for _, s := range order.AllStatuses() {
		if s == order.Initialized {
			continue
		}
		if _, ok := actions[s]; !ok {
			return nil, &MissingStageHandlerError{Status: s}
		}
	}

	return &StageActionRegistry{actions: actions}, nil
}

// DefaultStageActionRegistry binds ReserveStockAction to Picking, ReleaseStockAction to
// Cancelled and NoOpAction to every other enterable status.
func DefaultStageActionRegistry() (*StageActionRegistry, error) {
	bindings := make([]StageBinding, 0, len(order.AllStatuses()))
	for _, s := range order.AllStatuses() {
		switch s { //nolint:exhaustive // remaining statuses get the no-op action
		case order.Initialized:
			continue
		case order.Picking:
			bindings = append(bindings, Bind(s, ReserveStockAction{}))
		case order.Cancelled:
			bindings = append(bindings, Bind(s, ReleaseStockAction{}))
		default:
			bindings = append(bindings, Bind(s, NoOpAction{}))
		}
	}
	return NewStageActionRegistry(bindings...)
}

// Lookup returns the action bound to status.
func (r *StageActionRegistry) Lookup(status order.Status) (StageAction, error) {
	action, ok := r.actions[status]
	if !ok {
		return nil, &MissingStageHandlerError{Status: status}
	}
	return action, nil
}
