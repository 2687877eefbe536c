package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewRestockStorageLocationCommand(t *testing.T) {
	t.Run("should trim identifiers", func(t *testing.T) {
		cmd, err := commands.NewRestockStorageLocationCommand(" A ", " L1 ", " cold ", 4)
		require.NoError(t, err)
		assert.Equal(t, "A", cmd.SKU())
		assert.Equal(t, "L1", cmd.LocationCode())
		assert.Equal(t, "cold", cmd.Zone())
		assert.Equal(t, 4, cmd.Quantity())
	})

	t.Run("should reject blank identifiers and non-positive quantities", func(t *testing.T) {
		_, err := commands.NewRestockStorageLocationCommand(" ", "", "", 0)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestRestockStorageLocationCommandHandler_Handle(t *testing.T) {
	ctx := context.Background()

	newHandler := func(f *fixture) commands.RestockStorageLocationCommandHandler {
		return commands.NewRestockStorageLocationCommandHandler(f.stockFactory(), f.productLocks, f.clock, testPolicy, zerolog.Nop())
	}

	t.Run("should create a missing location", func(t *testing.T) {
		f := newFixture(t)
		h := newHandler(f)
		cmd, err := commands.NewRestockStorageLocationCommand("A", "L7", "cold", 12)
		require.NoError(t, err)

		level, err := h.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, "L7", level.LocationCode)
		assert.Equal(t, "cold", level.Zone)
		assert.Equal(t, 12, level.Available)
		assert.Equal(t, t0, level.LastRestockedAt)
		assert.Equal(t, map[string]int{"L7": 12}, f.available(t, "A"))
	})

	t.Run("should add to an existing location and keep reservations", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "A", "L1", 3)
		o := f.createOrder(t, testLine(t, "A", 2))
		f.moveTo(t, o.ID(), toConfirmed...)
		f.moveTo(t, o.ID(), order.Picking)
		h := newHandler(f)
		f.clock.Advance(time.Hour)
		cmd, err := commands.NewRestockStorageLocationCommand("A", "L1", "", 5)
		require.NoError(t, err)

		level, err := h.Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, 8, level.Total)
		assert.Equal(t, 2, level.Reserved)
		assert.Equal(t, 6, level.Available)
		assert.Equal(t, f.clock.Now(), level.LastRestockedAt)
		assert.Equal(t, map[string]int{"L1": 6}, f.available(t, "A"))
	})

	t.Run("should roll back when the location cannot be persisted", func(t *testing.T) {
		f := newFixture(t)
		loc, err := inventory.RestoreStorageLocation(kernel.NewUUID(), "A", "L1", "", 3, 0, 4, t0)
		require.NoError(t, err)

		repo := new(MockStorageLocationRepository)
		uow := new(MockStockUoW)
		mock.InOrder(
			uow.On("Begin", ctx).Return(nil).Once(),
			uow.On("StorageLocationRepository").Return(repo).Once(),
			repo.On("FindByCode", ctx, "A", "L1").Return(loc, nil).Once(),
			repo.On("Persist", ctx, loc).Return(errors.New("disk full")).Once(),
			uow.On("Rollback", ctx).Return(nil).Once(),
		)
		factory := new(MockStockUoWFactory)
		factory.On("Create").Return(uow).Once()

		h := commands.NewRestockStorageLocationCommandHandler(factory, f.productLocks, f.clock, testPolicy, zerolog.Nop())
		cmd, err := commands.NewRestockStorageLocationCommand("A", "L1", "", 1)
		require.NoError(t, err)

		_, err = h.Handle(ctx, cmd)

		require.EqualError(t, err, "disk full")
		repo.AssertExpectations(t)
		uow.AssertExpectations(t)
		factory.AssertExpectations(t)
	})
}
