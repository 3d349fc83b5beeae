package domain

import "time"

// Review is a 1-5 star rating a customer leaves on a delivered order.
// At most one exists per order.
type Review struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	ShopperID  string    `json:"shopper_id"`
	CustomerID string    `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
