package commands

import (
	"context"
	"errors"
	"time"

	"fulfillment/internal/core/application/usecases/views"
	"fulfillment/internal/core/domain/model/inventory"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/clock"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/locks"
	"fulfillment/internal/pkg/retry"

	"github.com/rs/zerolog"
)

// RestockStorageLocationCommandHandler adds stock under the product lock, so a restock
// never interleaves with a reservation of the same product.
type RestockStorageLocationCommandHandler struct {
	uowFactory   StockUoWFactory
	productLocks *locks.KeyedMutex
	clock        clock.Clock
	policy       retry.Policy
	logger       zerolog.Logger
}

func NewRestockStorageLocationCommandHandler(
	uowFactory StockUoWFactory,
	productLocks *locks.KeyedMutex,
	clk clock.Clock,
	policy retry.Policy,
	logger zerolog.Logger,
) RestockStorageLocationCommandHandler {
	return RestockStorageLocationCommandHandler{
		uowFactory:   uowFactory,
		productLocks: productLocks,
		clock:        clk,
		policy:       policy,
		logger:       logger.With().Str("component", "restock").Logger(),
	}
}

// Handle returns the stock level of the location after the restock.
func (h *RestockStorageLocationCommandHandler) Handle(
	ctx context.Context,
	cmd RestockStorageLocationCommand,
) (views.StockLevel, error) {
	if err := cmd.Validate(); err != nil {
		return views.StockLevel{}, err
	}

	logger := h.logger.With().
		Str("sku", cmd.SKU()).
		Str("location_code", cmd.LocationCode()).
		Logger()

	unlock, err := h.productLocks.Lock(ctx, cmd.SKU())
	if err != nil {
		return views.StockLevel{}, err
	}
	defer unlock()

	level, err := retry.Do(ctx, h.policy, func(ctx context.Context) (views.StockLevel, error) {
		return h.attempt(ctx, cmd)
	}, func(err error, attempt int, wait time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("restock attempt failed, retrying")
	})
	if err != nil {
		logger.Warn().Err(err).Msg("restock failed")
		return views.StockLevel{}, err
	}

	logger.Info().Int("quantity", cmd.Quantity()).Int("available", level.Available).Msg("location restocked")
	return level, nil
}

func (h *RestockStorageLocationCommandHandler) attempt(
	ctx context.Context,
	cmd RestockStorageLocationCommand,
) (views.StockLevel, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return views.StockLevel{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.StorageLocationRepository()
	now := h.clock.Now()

	loc, err := repo.FindByCode(ctx, cmd.SKU(), cmd.LocationCode())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		loc, err = inventory.NewStorageLocation(kernel.NewUUID(), cmd.SKU(), cmd.LocationCode(), cmd.Zone(), cmd.Quantity(), now)
		if err != nil {
			return views.StockLevel{}, err
		}
	case err != nil:
		return views.StockLevel{}, err
	default:
		if err = loc.Restock(cmd.Quantity(), now); err != nil {
			return views.StockLevel{}, err
		}
	}

	if err = repo.Persist(ctx, loc); err != nil {
		return views.StockLevel{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return views.StockLevel{}, err
	}

	return views.FromStorageLocation(loc), nil
}
