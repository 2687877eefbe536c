package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/metrics"
)

// TransitionObserver receives transition outcomes. *metrics.Metrics implements it.
type TransitionObserver interface {
	ObserveTransition(from, to, outcome string)
	ObserveReserved(units int)
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(string, string, string) {}
func (noopObserver) ObserveReserved(int)                      {}

// Outcome classifies the result of a transition attempt for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, order.ErrInvalidTransition):
		return metrics.OutcomeInvalidTransition
	case errors.Is(err, ErrStageChanged):
		return metrics.OutcomeStageChanged
	case errors.Is(err, inventory.ErrInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, errs.ErrObjectNotFound):
		return metrics.OutcomeNotFound
	case errs.IsRetryable(err):
		return metrics.OutcomeRetryable
	default:
		return metrics.OutcomeError
	}
}
