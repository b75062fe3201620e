package catalog

import "errors"

var (
	// -- Resource State --
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")

	// -- Validation & Input --
	ErrInvalidInput = errors.New("invalid catalog input")

	// -- Conflicts --
	ErrRestaurantExists = errors.New("restaurant already exists")
	ErrMenuItemExists   = errors.New("menu item already exists")
	ErrVersionConflict  = errors.New("restaurant was modified concurrently")
)
