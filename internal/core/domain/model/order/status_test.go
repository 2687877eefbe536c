package order_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_TransitionTable(t *testing.T) {
	allowed := map[order.Status][]order.Status{
		order.Initialized:       {order.AwaitingPayment, order.Cancelled},
		order.AwaitingPayment:   {order.PaymentProcessing, order.Cancelled},
		order.PaymentProcessing: {order.PaymentConfirmed, order.PaymentFailed},
		order.PaymentFailed:     {order.AwaitingPayment, order.Cancelled},
		order.PaymentConfirmed:  {order.Picking, order.Cancelled},
		order.Picking:           {order.Packing, order.Cancelled},
		order.Packing:           {order.ReadyForDelivery, order.Cancelled},
		order.ReadyForDelivery:  {order.OutForDelivery, order.Cancelled},
		order.OutForDelivery:    {order.Delivered},
		order.Delivered:         {},
		order.Cancelled:         {},
	}

	t.Run("should allow exactly the listed pairs", func(t *testing.T) {
		for _, from := range order.AllStatuses() {
			for _, to := range order.AllStatuses() {
				expected := false
				for _, target := range allowed[from] {
					if target == to {
						expected = true
					}
				}
				assert.Equal(t, expected, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("should report next statuses in table order", func(t *testing.T) {
		for from, targets := range allowed {
			assert.Equal(t, targets, from.NextStatuses(), "next statuses of %s", from)
		}
	})

	t.Run("should never allow self transitions", func(t *testing.T) {
		for _, s := range order.AllStatuses() {
			assert.False(t, s.CanTransitionTo(s), s.String())
		}
	})

	t.Run("should not let callers mutate the table", func(t *testing.T) {
		next := order.Picking.NextStatuses()
		next[0] = order.Delivered

		assert.Equal(t, []order.Status{order.Packing, order.Cancelled}, order.Picking.NextStatuses())
	})

	t.Run("should have no transitions from or to Unknown", func(t *testing.T) {
		assert.Empty(t, order.Unknown.NextStatuses())
		assert.False(t, order.Initialized.CanTransitionTo(order.Unknown))
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range order.AllStatuses() {
		expected := s == order.Delivered || s == order.Cancelled
		assert.Equal(t, expected, s.IsTerminal(), s.String())
	}
	assert.False(t, order.Unknown.IsTerminal())
}

func TestStatus_HoldsReservation(t *testing.T) {
	holding := map[order.Status]bool{
		order.Picking:          true,
		order.Packing:          true,
		order.ReadyForDelivery: true,
		order.OutForDelivery:   true,
	}

	for _, s := range order.AllStatuses() {
		assert.Equal(t, holding[s], s.HoldsReservation(), s.String())
	}
}

func TestParseStatus(t *testing.T) {
	t.Run("should round trip every status name", func(t *testing.T) {
		for _, s := range order.AllStatuses() {
			parsed, err := order.ParseStatus(s.String())

			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		}
	})

	t.Run("should reject unknown names", func(t *testing.T) {
		for _, name := range []string{"", "Unknown", "picking", "Shipped"} {
			parsed, err := order.ParseStatus(name)

			require.ErrorIs(t, err, errs.ErrValueIsInvalid, name)
			assert.Equal(t, order.Unknown, parsed)
		}
	})
}

func TestStatus_Validate(t *testing.T) {
	for _, s := range order.AllStatuses() {
		require.NoError(t, s.Validate())
	}

	require.ErrorIs(t, order.Unknown.Validate(), errs.ErrValueIsInvalid)
	require.ErrorIs(t, order.Status(42).Validate(), errs.ErrValueIsInvalid)
	assert.Equal(t, "Unknown", order.Status(42).String())
}
