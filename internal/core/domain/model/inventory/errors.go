package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStock is the sentinel for reservations that available stock cannot cover.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidReleaseAmount is the sentinel for releases larger than what is reserved.
	// It signals a bookkeeping bug, never a user error.
	ErrInvalidReleaseAmount = errors.New("invalid release amount")
)

// InsufficientStockError reports that the requested quantity of a product exceeds the
// sum of available quantity across its locations.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: sku %s requested %d, available %d", ErrInsufficientStock, e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InvalidReleaseAmountError reports an attempt to release more than is reserved at a location.
type InvalidReleaseAmountError struct {
	SKU          string
	LocationCode string
	Requested    int
	Reserved     int
}

func (e *InvalidReleaseAmountError) Error() string {
	return fmt.Sprintf("%s: sku %s at %s requested %d, reserved %d",
		ErrInvalidReleaseAmount, e.SKU, e.LocationCode, e.Requested, e.Reserved)
}

func (e *InvalidReleaseAmountError) Unwrap() error {
	return ErrInvalidReleaseAmount
}
