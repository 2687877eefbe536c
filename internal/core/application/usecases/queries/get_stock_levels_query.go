package queries

import (
	"errors"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrGetStockLevelsQueryIsNotConstructed = errors.New(
		"GetStockLevelsQuery must be created via NewGetStockLevelsQuery constructor",
	)
)

// GetStockLevelsQuery lists the locations holding one product.
type GetStockLevelsQuery struct {
	sku string

	guard guard.ConstructorGuard
}

// NewGetStockLevelsQuery creates a query for sku. A blank sku is rejected.
func NewGetStockLevelsQuery(sku string) (GetStockLevelsQuery, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return GetStockLevelsQuery{}, errs.NewValueIsRequiredError("sku")
	}
	return GetStockLevelsQuery{sku: sku, guard: guard.NewConstructorGuard()}, nil
}

func (q GetStockLevelsQuery) Validate() error {
	return q.guard.Validate(ErrGetStockLevelsQueryIsNotConstructed)
}

func (q GetStockLevelsQuery) SKU() string { return q.sku }
