package commands_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdvanceOrderStatusCommand(t *testing.T) {
	t.Run("should trim actor and note", func(t *testing.T) {
		cmd, err := commands.NewAdvanceOrderStatusCommand(kernel.NewUUID(), order.Picking, " warehouse ", " wave 7 ", nil)
		require.NoError(t, err)
		assert.Equal(t, "warehouse", cmd.Actor())
		assert.Equal(t, "wave 7", cmd.Note())
		assert.Equal(t, order.Picking, cmd.Target())
	})

	t.Run("should reject an unknown target and an empty order id", func(t *testing.T) {
		_, err := commands.NewAdvanceOrderStatusCommand(kernel.UUID{}, order.Unknown, "", "", nil)
		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should narrow a copy to an expected stage", func(t *testing.T) {
		cmd := advanceCmd(t, kernel.NewUUID(), order.Cancelled)

		narrowed, err := cmd.ExpectingStage(order.AwaitingPayment, t0)

		require.NoError(t, err)
		assert.Equal(t, order.AwaitingPayment, narrowed.ExpectedStatus())
		assert.Equal(t, t0, narrowed.EnteredBefore())
		assert.Equal(t, order.Unknown, cmd.ExpectedStatus())
		assert.True(t, cmd.EnteredBefore().IsZero())
	})

	t.Run("should reject an unknown expected stage and an unconstructed command", func(t *testing.T) {
		_, err := advanceCmd(t, kernel.NewUUID(), order.Cancelled).ExpectingStage(order.Unknown, t0)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		_, err = commands.AdvanceOrderStatusCommand{}.ExpectingStage(order.AwaitingPayment, t0)
		require.ErrorIs(t, err, commands.ErrAdvanceOrderStatusCommandIsNotConstructed)
	})
}

func TestAdvanceOrderStatusCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("should reserve stock on Picking and report allocations", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "A", "L1", 5)
		f.seed(t, "A", "L2", 3)
		o := f.createOrder(t, testLine(t, "A", 7))
		f.moveTo(t, o.ID(), toConfirmed...)

		details, err := f.advance.Handle(ctx, advanceCmd(t, o.ID(), order.Picking))
		require.NoError(t, err)

		assert.Equal(t, order.Picking, details.Status)
		assert.Len(t, details.History, 5)
		assert.Equal(t, 7, details.ReservedQuantity())
		require.Len(t, details.Allocations, 2)
		assert.Equal(t, "L1", details.Allocations[0].LocationCode)
		assert.Equal(t, 5, details.Allocations[0].Quantity)
		assert.Equal(t, map[string]int{"L1": 0, "L2": 1}, f.available(t, "A"))
		assert.Equal(t, order.Picking, f.load(t, o.ID()).Status())
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("PaymentConfirmed", "Picking", "ok")), 0)
		assert.InDelta(t, 7, testutil.ToFloat64(f.metrics.ReservedUnits), 0)
	})

	t.Run("should keep order and stock unchanged when stock is short", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "A", "L1", 5)
		f.seed(t, "B", "L1", 1)
		o := f.createOrder(t, testLine(t, "A", 4), testLine(t, "B", 2))
		f.moveTo(t, o.ID(), toConfirmed...)

		_, err := f.advance.Handle(ctx, advanceCmd(t, o.ID(), order.Picking))

		require.ErrorIs(t, err, inventory.ErrInsufficientStock)
		stored := f.load(t, o.ID())
		assert.Equal(t, order.PaymentConfirmed, stored.Status())
		assert.Len(t, stored.History(), 4)
		assert.Equal(t, map[string]int{"L1": 5}, f.available(t, "A"))
		assert.Equal(t, map[string]int{"L1": 1}, f.available(t, "B"))
		_, err = f.factory.Create().ReservationRepository().Get(ctx, o.ID())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		assert.InDelta(t, 1,
			testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("PaymentConfirmed", "Picking", "insufficient_stock")), 0)
	})

	t.Run("should reject an invalid transition", func(t *testing.T) {
		f := newFixture(t)
		o := f.createOrder(t, testLine(t, "A", 1))

		_, err := f.advance.Handle(ctx, advanceCmd(t, o.ID(), order.Picking))

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, order.Initialized, f.load(t, o.ID()).Status())
		assert.InDelta(t, 1,
			testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("Initialized", "Picking", "invalid_transition")), 0)
	})

	t.Run("should report an unknown order as not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.advance.Handle(ctx, advanceCmd(t, kernel.NewUUID(), order.AwaitingPayment))

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		assert.InDelta(t, 1,
			testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("Unknown", "AwaitingPayment", "not_found")), 0)
	})

	t.Run("should release the reservation when cancelling from Packing", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "A", "L1", 3)
		o := f.createOrder(t, testLine(t, "A", 3))
		f.moveTo(t, o.ID(), toConfirmed...)
		f.moveTo(t, o.ID(), order.Picking, order.Packing)
		assert.Equal(t, map[string]int{"L1": 0}, f.available(t, "A"))

		details, err := f.advance.Handle(ctx, advanceCmd(t, o.ID(), order.Cancelled))

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, details.Status)
		assert.Empty(t, details.Allocations)
		assert.Empty(t, details.NextStatuses)
		assert.Equal(t, map[string]int{"L1": 3}, f.available(t, "A"))
	})

	t.Run("should refuse a command expecting a stage the order already left", func(t *testing.T) {
		f := newFixture(t)
		o := f.createOrder(t, testLine(t, "A", 1))
		f.moveTo(t, o.ID(), toConfirmed...)
		cmd, err := advanceCmd(t, o.ID(), order.Cancelled).ExpectingStage(order.AwaitingPayment, time.Time{})
		require.NoError(t, err)

		_, err = f.advance.Handle(ctx, cmd)

		require.ErrorIs(t, err, commands.ErrStageChanged)
		assert.NotErrorIs(t, err, order.ErrInvalidTransition)
		stored := f.load(t, o.ID())
		assert.Equal(t, order.PaymentConfirmed, stored.Status())
		assert.Len(t, stored.History(), 4)
		assert.InDelta(t, 1,
			testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("PaymentConfirmed", "Cancelled", "stage_changed")), 0)
	})

	t.Run("should refuse a command when the expected stage was entered too recently", func(t *testing.T) {
		f := newFixture(t)
		o := f.createOrder(t, testLine(t, "A", 1))
		f.moveTo(t, o.ID(), order.AwaitingPayment)
		entered := f.load(t, o.ID()).LastStage().EnteredAt()

		cmd, err := advanceCmd(t, o.ID(), order.Cancelled).ExpectingStage(order.AwaitingPayment, entered)
		require.NoError(t, err)
		_, err = f.advance.Handle(ctx, cmd)
		require.ErrorIs(t, err, commands.ErrStageChanged)
		assert.Equal(t, order.AwaitingPayment, f.load(t, o.ID()).Status())

		cmd, err = advanceCmd(t, o.ID(), order.Cancelled).ExpectingStage(order.AwaitingPayment, entered.Add(time.Second))
		require.NoError(t, err)
		details, err := f.advance.Handle(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, details.Status)
	})

	t.Run("should record actor and note on the stage", func(t *testing.T) {
		f := newFixture(t)
		o := f.createOrder(t, testLine(t, "A", 1))
		cmd, err := commands.NewAdvanceOrderStatusCommand(o.ID(), order.AwaitingPayment, "checkout", "card selected", nil)
		require.NoError(t, err)

		details, err := f.advance.Handle(ctx, cmd)

		require.NoError(t, err)
		last := details.History[len(details.History)-1]
		assert.Equal(t, "checkout", last.Actor)
		assert.Equal(t, "card selected", last.Note)
	})
}

// flakyUoW fails Commit with a retryable conflict while failures remain.
type flakyUoW struct {
	ports.UnitOfWork
	failures *atomic.Int32
}

func (u flakyUoW) Commit(ctx context.Context) error {
	if u.failures.Add(-1) >= 0 {
		_ = u.UnitOfWork.Rollback(ctx)
		return ports.NewConcurrentModificationError("storage location L1")
	}
	return u.UnitOfWork.Commit(ctx)
}

func TestAdvanceOrderStatusCommandHandler_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("should retry a conflicting commit and append the stage once", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "A", "L1", 5)
		o := f.createOrder(t, testLine(t, "A", 2))
		f.moveTo(t, o.ID(), toConfirmed...)

		failures := &atomic.Int32{}
		failures.Store(2)
		h := f.newAdvanceHandler(t, uowFactoryFunc(func() commands.UoW {
			return flakyUoW{UnitOfWork: f.factory.Create(), failures: failures}
		}))

		details, err := h.Handle(ctx, advanceCmd(t, o.ID(), order.Picking))

		require.NoError(t, err)
		assert.Len(t, details.History, 5)
		assert.Equal(t, map[string]int{"L1": 3}, f.available(t, "A"))
	})

	t.Run("should give up after the configured retries", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "A", "L1", 5)
		o := f.createOrder(t, testLine(t, "A", 2))
		f.moveTo(t, o.ID(), toConfirmed...)

		failures := &atomic.Int32{}
		failures.Store(10)
		h := f.newAdvanceHandler(t, uowFactoryFunc(func() commands.UoW {
			return flakyUoW{UnitOfWork: f.factory.Create(), failures: failures}
		}))

		_, err := h.Handle(ctx, advanceCmd(t, o.ID(), order.Picking))

		require.ErrorIs(t, err, errs.ErrRetryable)
		require.ErrorIs(t, err, ports.ErrConcurrentModification)
		assert.Equal(t, int32(10-3), failures.Load())
		assert.Equal(t, order.PaymentConfirmed, f.load(t, o.ID()).Status())
		assert.Equal(t, map[string]int{"L1": 5}, f.available(t, "A"))
	})
}

func TestAdvanceOrderStatusCommandHandler_CompetingOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, "A", "L1", 6)
	f.seed(t, "A", "L2", 4)

	const orders = 6
	ids := make([]kernel.UUID, 0, orders)
	for range orders {
		o := f.createOrder(t, testLine(t, "A", 3))
		f.moveTo(t, o.ID(), toConfirmed...)
		ids = append(ids, o.ID())
	}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		short     atomic.Int32
	)
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.advance.Handle(ctx, advanceCmd(t, id, order.Picking))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errs.IsRetryable(err):
				t.Errorf("unexpected retryable failure: %v", err)
			default:
				assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
				short.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), succeeded.Load())
	assert.Equal(t, int32(3), short.Load())
	assert.Equal(t, map[string]int{"L1": 0, "L2": 1}, f.available(t, "A"))
}

func TestAdvanceOrderStatusCommandHandler_LockTimeout(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, testLine(t, "A", 1))

	unlock, err := f.orderLocks.Lock(context.Background(), o.ID().String())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.advance.Handle(ctx, advanceCmd(t, o.ID(), order.AwaitingPayment))

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, order.Initialized, f.load(t, o.ID()).Status())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", commands.Outcome(nil))
	assert.Equal(t, "invalid_transition", commands.Outcome(&order.InvalidTransitionError{From: order.Picking, To: order.Delivered}))
	assert.Equal(t, "insufficient_stock", commands.Outcome(&inventory.InsufficientStockError{SKU: "A", Requested: 2}))
	assert.Equal(t, "stage_changed", commands.Outcome(fmt.Errorf("%w: expected AwaitingPayment", commands.ErrStageChanged)))
	assert.Equal(t, "not_found", commands.Outcome(errs.NewObjectNotFoundError("order", "x")))
	assert.Equal(t, "retryable", commands.Outcome(ports.NewConcurrentModificationError("x")))
	assert.Equal(t, "error", commands.Outcome(context.Canceled))
}
