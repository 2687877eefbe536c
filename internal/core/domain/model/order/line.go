package order

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

// ErrLineIsNotConstructed is returned when a Line was not created via NewLine.
var ErrLineIsNotConstructed = errors.New("Line must be created via NewLine constructor")

// Line is one product entry of an order. Lines are immutable after creation.
type Line struct {
	sku       string
	name      string
	unitPrice decimal.Decimal
	quantity  int
	guard     guard.ConstructorGuard
}

// NewLine validates and creates an order line.
//
// Parameters:
//   - sku: product stock keeping unit, non-blank
//   - name: display name, may be empty
//   - unitPrice: price of one unit, not negative
//   - quantity: number of units, greater than 0
//
// Example:
//
//	line, err := order.NewLine("SKU-1", "Coffee beans 1kg", decimal.RequireFromString("19.90"), 2)
func NewLine(sku, name string, unitPrice decimal.Decimal, quantity int) (Line, error) {
	line := Line{
		name:  strings.TrimSpace(name),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		line.setSKU(sku),
		line.setUnitPrice(unitPrice),
		line.setQuantity(quantity),
	); err != nil {
		return Line{}, err
	}

	return line, nil
}

// Validate returns ErrLineIsNotConstructed for the zero value.
func (l Line) Validate() error {
	return l.guard.Validate(ErrLineIsNotConstructed)
}

// SKU returns the product stock keeping unit.
func (l Line) SKU() string { return l.sku }

// Name returns the display name.
func (l Line) Name() string { return l.name }

// UnitPrice returns the price of a single unit.
func (l Line) UnitPrice() decimal.Decimal { return l.unitPrice }

// Quantity returns the number of ordered units.
func (l Line) Quantity() int { return l.quantity }

// Subtotal returns unit price multiplied by quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))
}

func (l *Line) setSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return errs.NewValueIsRequiredError("sku")
	}
	l.sku = sku
	return nil
}

func (l *Line) setUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("unit price is invalid", fmt.Errorf("%s is negative", price))
	}
	l.unitPrice = price
	return nil
}

func (l *Line) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	l.quantity = quantity
	return nil
}
