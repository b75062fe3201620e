package order

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusPreparing  Status = "PREPARING"
	StatusReady      Status = "READY"
	StatusInDelivery Status = "IN_DELIVERY"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// lifecycle is the forward path. Each state may only advance one step.
var lifecycle = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusInDelivery,
	StatusDelivered,
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if st == StatusCancelled {
		return st, true
	}
	for _, known := range lifecycle {
		if st == known {
			return st, true
		}
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order in from may move to to.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	for i, st := range lifecycle {
		if st == from {
			return i+1 < len(lifecycle) && lifecycle[i+1] == to
		}
	}
	return false
}

type OrderItem struct {
	MenuItemID   string  `json:"menu_item_id" bson:"menu_item_id"`
	RestaurantID string  `json:"restaurant_id" bson:"restaurant_id"`
	Name         string  `json:"name" bson:"name"`
	Quantity     int     `json:"quantity" bson:"quantity"`
	Price        float64 `json:"price" bson:"price"`
}

type Order struct {
	ID                  string      `json:"id" bson:"id"`
	UserID              string      `json:"user_id" bson:"user_id"`
	RestaurantID        string      `json:"restaurant_id" bson:"restaurant_id"`
	Items               []OrderItem `json:"items" bson:"items"`
	TotalPrice          float64     `json:"total_price" bson:"total_price"`
	Status              Status      `json:"status" bson:"status"`
	CreatedAt           time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" bson:"updated_at"`
	SpecialInstructions *string     `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
}

// ProposedItem is a line item as the client submitted it.
type ProposedItem struct {
	MenuItemID   string  `json:"menu_item_id"`
	RestaurantID string  `json:"restaurant_id"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
}

type CreateOrderInput struct {
	ID                  string         `json:"id" validate:"omitempty,uuid"`
	RestaurantID        string         `json:"restaurant_id"`
	Items               []ProposedItem `json:"items"`
	TotalPrice          *float64       `json:"total_price"`
	SpecialInstructions *string        `json:"special_instructions" validate:"omitempty,max=500"`
}

type StatusChange struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ChangedAt  time.Time `json:"changed_at"`
}
