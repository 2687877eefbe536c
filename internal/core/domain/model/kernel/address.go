package kernel

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when an Address was not created via NewAddress.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress constructor")

// Address is the delivery destination of an order. It is an immutable value object:
// every field except apartment and comment is mandatory, and the zero value is invalid.
//
// Example:
//
//	addr, err := kernel.NewAddress("DE", "Berlin", "Invalidenstrasse", "117", "4B", "ring twice")
//	if err != nil {
//	    // one or more fields are missing
//	}
type Address struct {
	country   string
	city      string
	street    string
	building  string
	apartment string
	comment   string
	guard     guard.ConstructorGuard
}

// NewAddress validates and creates an Address. Surrounding whitespace is trimmed.
// All missing mandatory fields are reported together.
//
// Parameters:
//   - country, city, street, building: required, non-blank
//   - apartment, comment: optional
//
// Returns:
//   - Address: a valid address
//   - error: joined ValueIsRequiredError values for every blank mandatory field
func NewAddress(country, city, street, building, apartment, comment string) (Address, error) {
	addr := Address{
		apartment: strings.TrimSpace(apartment),
		comment:   strings.TrimSpace(comment),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		setRequired("country", country, &addr.country),
		setRequired("city", city, &addr.city),
		setRequired("street", street, &addr.street),
		setRequired("building", building, &addr.building),
	); err != nil {
		return Address{}, err
	}

	return addr, nil
}

// Validate returns ErrAddressIsNotConstructed for the zero value.
func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

// Country returns the country.
func (a Address) Country() string { return a.country }

// City returns the city.
func (a Address) City() string { return a.city }

// Street returns the street.
func (a Address) Street() string { return a.street }

// Building returns the building number or name.
func (a Address) Building() string { return a.building }

// Apartment returns the apartment, empty when not given.
func (a Address) Apartment() string { return a.apartment }

// Comment returns the courier comment, empty when not given.
func (a Address) Comment() string { return a.comment }

// IsEqual compares two addresses field by field.
func (a Address) IsEqual(other Address) bool {
	return a == other
}

// String returns a single-line representation for logs.
func (a Address) String() string {
	s := fmt.Sprintf("%s, %s, %s %s", a.country, a.city, a.street, a.building)
	if a.apartment != "" {
		s += ", apt. " + a.apartment
	}
	return s
}

// setRequired trims value and stores it in dst, or reports it as missing.
func setRequired(name, value string, dst *string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errs.NewValueIsRequiredError(name)
	}
	*dst = value
	return nil
}
