package domain

import "time"

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderClaimed       EventType = "order.claimed"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventPaymentReported    EventType = "payment.reported"
	EventReviewCreated      EventType = "review.created"
)

type OrderCreatedEvent struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Title      string    `json:"title"`
	Currency   Currency  `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
}

type OrderClaimedEvent struct {
	OrderID   string    `json:"order_id"`
	ShopperID string    `json:"shopper_id"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	ShopperID  string      `json:"shopper_id"`
	Status     OrderStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
}

type PaymentReportedEvent struct {
	OrderID   string        `json:"order_id"`
	PaymentID string        `json:"payment_id"`
	Amount    int64         `json:"amount"`
	CreatedBy PaymentOrigin `json:"created_by"`
	Timestamp time.Time     `json:"timestamp"`
}

type ReviewCreatedEvent struct {
	OrderID   string    `json:"order_id"`
	ShopperID string    `json:"shopper_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}
