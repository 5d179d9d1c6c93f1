package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order event types published to the order events topic.
const (
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
	EventOrderRefunded  = "order.refunded"
	EventOrderPaid      = "order.paid"
)

// OrderEvent is the payload written to the outbox for order state changes.
type OrderEvent struct {
	Type        string          `json:"type"`
	OrderID     int64           `json:"orderId"`
	OrderNo     string          `json:"orderNo"`
	UserID      int64           `json:"userId"`
	Status      OrderStatus     `json:"status"`
	PayAmount   decimal.Decimal `json:"payAmount"`
	Items       []ItemQuantity  `json:"items,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	StockReturn bool            `json:"stockReturned,omitempty"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// ItemQuantity is a catalog item and the quantity an event refers to.
type ItemQuantity struct {
	ItemRef
	Quantity int `json:"quantity"`
}

// OutboxEvent is a pending message stored alongside the state change that
// produced it.
type OutboxEvent struct {
	ID            int64      `db:"id"`
	AggregateType string     `db:"aggregate_type"`
	AggregateID   string     `db:"aggregate_id"`
	EventType     string     `db:"event_type"`
	Topic         string     `db:"topic"`
	Payload       []byte     `db:"payload"`
	Attempts      int        `db:"attempts"`
	LastError     *string    `db:"last_error"`
	CreatedAt     time.Time  `db:"created_at"`
	PublishedAt   *time.Time `db:"published_at"`
}

// NewOrderOutboxEvent serialises an order event for the outbox.
func NewOrderOutboxEvent(topic string, event OrderEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		AggregateType: "order",
		AggregateID:   event.OrderNo,
		EventType:     event.Type,
		Topic:         topic,
		Payload:       payload,
	}, nil
}
