package order

import "errors"

var (
	// -- Authentication/Authorization --
	ErrUnauthorized = errors.New("unauthorized")

	// -- Validation & Input --
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("item quantity must be between 1 and 20")
	ErrPriceMismatch    = errors.New("price mismatch")
	ErrTotalMismatch    = errors.New("total price does not match items")
	ErrMixedRestaurants = errors.New("all items must belong to the order's restaurant")
	ErrInvalidInput     = errors.New("invalid order input")
	ErrInvalidOrderID   = errors.New("invalid order id")
	ErrInvalidStatus    = errors.New("invalid order status")

	// -- Resource State --
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderExists       = errors.New("order already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusConflict    = errors.New("order status changed concurrently")
)
