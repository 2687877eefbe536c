package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/clock"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/locks"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/pkg/retry"

	"github.com/rs/zerolog"
)

// AdvanceOrderStatusCommandHandler moves orders through their lifecycle.
//
// Each call holds the order lock for its whole duration. Inside it, every attempt runs in
// a fresh unit of work; product locks taken by stock actions live in a lock set that is
// released only after that unit of work commits or rolls back. Attempts failing with a
// retryable error are repeated according to the retry policy.
type AdvanceOrderStatusCommandHandler struct {
	uowFactory   UoWFactory
	engine       *services.TransitionEngine
	orderLocks   *locks.KeyedMutex
	productLocks *locks.KeyedMutex
	clock        clock.Clock
	policy       retry.Policy
	observer     TransitionObserver
	logger       zerolog.Logger
}

// NewAdvanceOrderStatusCommandHandler creates the handler. observer may be nil.
func NewAdvanceOrderStatusCommandHandler(
	uowFactory UoWFactory,
	engine *services.TransitionEngine,
	orderLocks, productLocks *locks.KeyedMutex,
	clk clock.Clock,
	policy retry.Policy,
	observer TransitionObserver,
	logger zerolog.Logger,
) (*AdvanceOrderStatusCommandHandler, error) {
	if uowFactory == nil {
		return nil, errs.NewValueIsRequiredError("uowFactory")
	}
	if engine == nil {
		return nil, errs.NewValueIsRequiredError("engine")
	}
	if orderLocks == nil || productLocks == nil {
		return nil, errs.NewValueIsRequiredError("locks")
	}
	if clk == nil {
		return nil, errs.NewValueIsRequiredError("clock")
	}
	if observer == nil {
		observer = noopObserver{}
	}

	return &AdvanceOrderStatusCommandHandler{
		uowFactory:   uowFactory,
		engine:       engine,
		orderLocks:   orderLocks,
		productLocks: productLocks,
		clock:        clk,
		policy:       policy,
		observer:     observer,
		logger:       logger.With().Str("component", "advance_order_status").Logger(),
	}, nil
}

// Handle applies the transition and returns the order as committed.
//
// Returns:
//   - *order.InvalidTransitionError when the target is not reachable
//   - an error wrapping ErrStageChanged when an ExpectingStage precondition no longer holds
//   - an error wrapping inventory.ErrInsufficientStock when Picking cannot be covered
//   - *errs.ObjectNotFoundError for an unknown order
//   - a retryable error when locks or version checks kept failing after all retries
//
// On any error the order and the stock are left exactly as they were.
func (h *AdvanceOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd AdvanceOrderStatusCommand,
) (views.OrderDetails, error) {
	if err := cmd.Validate(); err != nil {
		return views.OrderDetails{}, err
	}

	logger := h.logger.With().
		Str("order_id", cmd.OrderID().String()).
		Str("to", cmd.Target().String()).
		Str("actor", cmd.Actor()).
		Logger()

	from := order.Unknown

	unlock, err := h.orderLocks.Lock(ctx, cmd.OrderID().String())
	if err != nil {
		h.finish(logger, from, cmd.Target(), err)
		return views.OrderDetails{}, err
	}
	defer unlock()

	details, err := retry.Do(ctx, h.policy, func(ctx context.Context) (views.OrderDetails, error) {
		return h.attempt(ctx, cmd, &from)
	}, func(err error, attempt int, wait time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("transition attempt failed, retrying")
	})

	h.finish(logger, from, cmd.Target(), err)
	if err != nil {
		return views.OrderDetails{}, err
	}

	if cmd.Target() == order.Picking {
		h.observer.ObserveReserved(details.ReservedQuantity())
	}
	return details, nil
}

func (h *AdvanceOrderStatusCommandHandler) attempt(
	ctx context.Context,
	cmd AdvanceOrderStatusCommand,
	from *order.Status,
) (views.OrderDetails, error) {
	held := h.productLocks.NewSet()
	defer held.ReleaseAll()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return views.OrderDetails{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return views.OrderDetails{}, err
	}
	*from = o.Status()
	if err = cmd.checkStage(o); err != nil {
		return views.OrderDetails{}, err
	}

	ledger, err := services.NewStorageLedger(uow.StorageLocationRepository())
	if err != nil {
		return views.OrderDetails{}, err
	}
	allocator, err := services.NewReservationAllocator(ledger, uow.ReservationRepository(), held, h.clock)
	if err != nil {
		return views.OrderDetails{}, err
	}

	if err = h.engine.Transition(ctx, o, cmd.Target(), services.StageContext{
		Actor:   cmd.Actor(),
		Note:    cmd.Note(),
		Payload: cmd.Payload(),
		Stock:   allocator,
	}); err != nil {
		return views.OrderDetails{}, err
	}

	if err = uow.OrderRepository().Save(ctx, o); err != nil {
		return views.OrderDetails{}, err
	}

	details := views.FromOrder(o)
	reservation, err := uow.ReservationRepository().Get(ctx, o.ID())
	switch {
	case err == nil:
		details = details.WithReservation(reservation)
	case !errors.Is(err, errs.ErrObjectNotFound):
		return views.OrderDetails{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return views.OrderDetails{}, err
	}

	return details, nil
}

func (h *AdvanceOrderStatusCommandHandler) finish(logger zerolog.Logger, from, to order.Status, err error) {
	outcome := Outcome(err)
	h.observer.ObserveTransition(from.String(), to.String(), outcome)

	logger = logger.With().Str("from", from.String()).Str("outcome", outcome).Logger()
	switch {
	case err == nil:
		logger.Info().Msg("order transitioned")
	case services.IsInvariantViolation(err):
		logger.Error().Err(err).Msg("transition broke an invariant")
	case outcome == metrics.OutcomeError:
		logger.Error().Err(err).Msg("transition failed")
	default:
		logger.Warn().Err(err).Msg("transition rejected")
	}
}
