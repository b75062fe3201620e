package order

import (
	"errors"
	"fmt"

	"biteme-be/internal/catalog"

	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 20
)

var priceTolerance = decimal.New(1, -2)

// CatalogLookup resolves a menu item by restaurant and display name.
type CatalogLookup func(restaurantID, name string) (*catalog.MenuItem, error)

// RejectionError names the reason an order was refused and the offending
// item, if any. It unwraps to the reason.
type RejectionError struct {
	Reason error
	Item   string
}

func (e *RejectionError) Error() string {
	if e.Item == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Item)
}

func (e *RejectionError) Unwrap() error { return e.Reason }

func reject(reason error, item string) error {
	return &RejectionError{Reason: reason, Item: item}
}

// CheckItems runs the checks that need no catalog state.
func CheckItems(items []ProposedItem) error {
	if len(items) == 0 {
		return reject(ErrEmptyOrder, "")
	}
	for _, it := range items {
		if it.Quantity < MinQuantity || it.Quantity > MaxQuantity {
			return reject(ErrInvalidQuantity, fmt.Sprintf("%s x%d", it.Name, it.Quantity))
		}
	}
	return nil
}

// Validate checks every proposed item against the catalog and returns the
// items priced from the catalog. It performs no I/O of its own.
func Validate(items []ProposedItem, lookup CatalogLookup) ([]OrderItem, error) {
	if err := CheckItems(items); err != nil {
		return nil, err
	}

	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		mi, err := lookup(it.RestaurantID, it.Name)
		switch {
		case errors.Is(err, catalog.ErrRestaurantNotFound):
			return nil, reject(catalog.ErrRestaurantNotFound, it.RestaurantID)
		case errors.Is(err, catalog.ErrMenuItemNotFound):
			return nil, reject(catalog.ErrMenuItemNotFound, it.Name)
		case err != nil:
			return nil, err
		}

		if !withinTolerance(it.Price, mi.Price) {
			return nil, reject(ErrPriceMismatch, it.Name)
		}

		out = append(out, OrderItem{
			MenuItemID:   mi.ID,
			RestaurantID: it.RestaurantID,
			Name:         mi.Name,
			Quantity:     it.Quantity,
			Price:        mi.Price,
		})
	}
	return out, nil
}

// Total sums quantity * price in exact decimal arithmetic, rounded to cents.
func Total(items []OrderItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Round(2).InexactFloat64()
}

func withinTolerance(a, b float64) bool {
	diff := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return diff.LessThanOrEqual(priceTolerance)
}
