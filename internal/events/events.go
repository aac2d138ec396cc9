package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderCancelled     = "order.cancelled"
)

type Event interface {
	Type() string
}

// Publisher delivers order lifecycle events to whoever notifies customers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type OrderCreated struct {
	OrderID       int64           `json:"orderId"`
	Customer      models.Customer `json:"customer"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
}

func (OrderCreated) Type() string { return TypeOrderCreated }

type OrderStatusChanged struct {
	OrderID int64              `json:"orderId"`
	From    models.OrderStatus `json:"from"`
	To      models.OrderStatus `json:"to"`
	At      time.Time          `json:"at"`
}

func (OrderStatusChanged) Type() string { return TypeOrderStatusChanged }

type OrderCancelled struct {
	OrderID int64              `json:"orderId"`
	From    models.OrderStatus `json:"from"`
	At      time.Time          `json:"at"`
}

func (OrderCancelled) Type() string { return TypeOrderCancelled }

// Envelope is the wire form of a published event.
type Envelope struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    Event     `json:"payload"`
}

func NewEnvelope(event Event, at time.Time) Envelope {
	return Envelope{
		ID:         uuid.New(),
		Type:       event.Type(),
		OccurredAt: at.UTC(),
		Payload:    event,
	}
}
