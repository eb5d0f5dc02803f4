package events

import (
	"context"
	"time"
)

// Routing keys
const (
	ShopVerificationDecided  = "shop.verification_decided"
	OrderCreated             = "order.created"
	OrderPaid                = "order.paid"
	OrderStatusChanged       = "order.status_changed"
	ReservationCreated       = "reservation.created"
	ReservationStatusChanged = "reservation.status_changed"
)

// Message is the envelope written to the exchange
type Message struct {
	CorrelationID string      `json:"correlation_id"`
	Exchange      string      `json:"exchange"`
	RoutingKey    string      `json:"routing_key"`
	OccurredAt    time.Time   `json:"occurred_at"`
	Message       interface{} `json:"message"`
}

// Publisher emits domain events. Publishing is best effort and callers only log failures.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NoopPublisher) Close() error { return nil }
