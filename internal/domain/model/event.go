package model

import (
	"encoding/json"
	"time"
)

// OrderEventType names an order lifecycle event.
type OrderEventType string

const (
	EventOrderCreated        OrderEventType = "order.created"
	EventOrderStatusChanged  OrderEventType = "order.status_changed"
	EventOrderPaymentUpdated OrderEventType = "order.payment_updated"
)

// OrderEvent is published to the message broker through the outbox.
type OrderEvent struct {
	ID         string         `json:"eventId"`
	Type       OrderEventType `json:"type"`
	OrderID    string         `json:"orderId"`
	UserID     int64          `json:"userId"`
	Status     OrderStatus    `json:"status"`
	IsPaid     bool           `json:"isPaid"`
	TotalPrice string         `json:"totalPrice"`
	Note       string         `json:"note,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewOrderEvent captures current order state.
func NewOrderEvent(id string, eventType OrderEventType, order *Order, note string, at time.Time) OrderEvent {
	return OrderEvent{
		ID:         id,
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		IsPaid:     order.IsPaid,
		TotalPrice: order.TotalPrice.StringFixed(2),
		Note:       note,
		OccurredAt: at.UTC(),
	}
}

// OutboxRecord is a stored event waiting for delivery.
type OutboxRecord struct {
	ID        int64
	EventID   string
	Topic     string
	Key       string
	Payload   json.RawMessage
	Attempts  int
	CreatedAt time.Time
}
