package inventory

import (
	"fmt"
	"sort"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Allocation is a quantity of one product reserved at one location.
type Allocation struct {
	LocationID   kernel.UUID
	LocationCode string
	SKU          string
	Quantity     int
}

// SortByCode orders locations by location code, then by ID for equal codes. This is the
// order in which Allocate consumes stock.
func SortByCode(locations []*StorageLocation) {
	sort.SliceStable(locations, func(i, j int) bool {
		if locations[i].code != locations[j].code {
			return locations[i].code < locations[j].code
		}
		return locations[i].id.String() < locations[j].id.String()
	})
}

// Allocate reserves qty units of sku across locations, walking them in ascending
// location code order and taking as much as each one has available until the request
// is covered.
//
// The split is all-or-nothing: availability is summed first and no location is touched
// when the sum is short. On success the returned allocations name exactly the locations
// that were mutated, in consumption order.
//
// Returns:
//   - []Allocation: the split, never empty on success
//   - *InsufficientStockError when the total available is below qty
//   - ValueIsInvalidError when qty is not positive or a location holds another SKU
//
// Example:
//
//	// L1 has 5 available, L2 has 3
//	allocs, err := inventory.Allocate(locations, "P", 7) // [L1:5 L2:2]
func Allocate(locations []*StorageLocation, sku string, qty int) ([]Allocation, error) {
	if qty <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", qty))
	}

	candidates := make([]*StorageLocation, 0, len(locations))
	available := 0
	for _, loc := range locations {
		if err := loc.Validate(); err != nil {
			return nil, err
		}
		if loc.SKU() != sku {
			return nil, errs.NewValueIsInvalidErrorWithCause("location is invalid",
				fmt.Errorf("location %s holds %s, not %s", loc.Code(), loc.SKU(), sku))
		}
		candidates = append(candidates, loc)
		available += loc.Available()
	}
	if available < qty {
		return nil, &InsufficientStockError{SKU: sku, Requested: qty, Available: available}
	}

	SortByCode(candidates)

	allocations := make([]Allocation, 0, 1)
	remaining := qty
	for _, loc := range candidates {
		if remaining == 0 {
			break
		}
		take := min(loc.Available(), remaining)
		if take == 0 {
			continue
		}
		if err := loc.Reserve(take); err != nil {
			return nil, err
		}
		allocations = append(allocations, Allocation{
			LocationID:   loc.ID(),
			LocationCode: loc.Code(),
			SKU:          sku,
			Quantity:     take,
		})
		remaining -= take
	}

	return allocations, nil
}
