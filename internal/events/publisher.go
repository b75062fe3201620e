package events

import (
	"context"
	"fmt"
	"time"

	"biteme-be/internal/config"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
)

type OrderEvent struct {
	Type           Type      `json:"type"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	RestaurantID   string    `json:"restaurant_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalPrice     float64   `json:"total_price"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
	Close() error
}

// New picks the broker named by EVENTS_BROKER. Empty means events are
// dropped.
func New(cfg *config.Config) (Publisher, error) {
	switch cfg.EventsBroker {
	case "":
		return NewNoopPublisher(), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("EVENTS_BROKER=kafka requires KAFKA_BROKERS")
		}
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "rabbitmq":
		return DialRabbitMQ(cfg.RabbitMQURL)
	default:
		return nil, fmt.Errorf("unknown EVENTS_BROKER %q", cfg.EventsBroker)
	}
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (noopPublisher) Close() error { return nil }
