package commands

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrRestockStorageLocationCommandIsNotConstructed = errors.New(
	"RestockStorageLocationCommand must be created via NewRestockStorageLocationCommand constructor",
)

// RestockStorageLocationCommand adds units of a product to a storage location,
// creating the location in zone if it does not exist yet.
type RestockStorageLocationCommand struct { //nolint:recvcheck //using for validation
	sku          string
	locationCode string
	zone         string
	quantity     int

	guard guard.ConstructorGuard
}

func NewRestockStorageLocationCommand(sku, locationCode, zone string, quantity int) (RestockStorageLocationCommand, error) {
	cmd := RestockStorageLocationCommand{
		zone:  strings.TrimSpace(zone),
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setSKU(sku),
		cmd.setLocationCode(locationCode),
		cmd.setQuantity(quantity),
	); err != nil {
		return RestockStorageLocationCommand{}, err
	}

	return cmd, nil
}

func (c RestockStorageLocationCommand) Validate() error {
	return c.guard.Validate(ErrRestockStorageLocationCommandIsNotConstructed)
}

func (c RestockStorageLocationCommand) SKU() string { return c.sku }

func (c RestockStorageLocationCommand) LocationCode() string { return c.locationCode }

func (c RestockStorageLocationCommand) Zone() string { return c.zone }

func (c RestockStorageLocationCommand) Quantity() int { return c.quantity }

func (c *RestockStorageLocationCommand) setSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return errs.NewValueIsRequiredError("sku")
	}
	c.sku = sku
	return nil
}

func (c *RestockStorageLocationCommand) setLocationCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errs.NewValueIsRequiredError("location code")
	}
	c.locationCode = code
	return nil
}

func (c *RestockStorageLocationCommand) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	c.quantity = quantity
	return nil
}
