package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrackingEvent is an append-only record of an order's status history.
type TrackingEvent struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	OrderID     uuid.UUID   `json:"-" db:"order_id"`
	Status      OrderStatus `json:"status" db:"status"`
	Description string      `json:"description" db:"description"`
	Location    string      `json:"location,omitempty" db:"location"`
	CreatedAt   time.Time   `json:"timestamp" db:"created_at"`
}

// TrackingSnapshot is the read-only projection returned by order tracking.
type TrackingSnapshot struct {
	Order             *Order          `json:"order"`
	TrackingEvents    []TrackingEvent `json:"trackingEvents"`
	EstimatedDelivery time.Time       `json:"estimatedDelivery"`
}

// PaymentSessionRequest is the body of POST /payments/create-session.
type PaymentSessionRequest struct {
	OrderID string           `json:"orderId"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
}

// PaymentSessionResponse carries either a redirect URL or an error. Callers
// must check for a missing URL even on HTTP 200.
type PaymentSessionResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// GuestNotificationRequest is the body of POST /orders/send-guest-notifications.
type GuestNotificationRequest struct {
	OrderID      string             `json:"orderId"`
	CustomerInfo CustomerInfo       `json:"customerInfo"`
	Items        []OrderItemRequest `json:"items"`
	TotalAmount  decimal.Decimal    `json:"totalAmount"`
}
