package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutService converts a cart into a durable order.
type CheckoutService interface {
	// PlaceOrder validates and prices the cart, persists the order and
	// requests a payment session. When the order was stored but the payment
	// session could not be created, both the result and the payment error
	// are returned.
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error)
}

// StatusService drives the order lifecycle for vendors and administrators.
type StatusService interface {
	// Transition moves an order to a new status and records a tracking event.
	Transition(ctx context.Context, cmd TransitionCommand) (*model.Order, error)

	// AttachTrackingNumber assigns the carrier tracking number without
	// changing the order status.
	AttachTrackingNumber(ctx context.Context, cmd AttachTrackingCommand) (*model.Order, error)

	// ListOrders returns the orders visible to actor.
	ListOrders(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error)
}

// TrackingService serves read-only order views.
type TrackingService interface {
	// GetOrder retrieves an order with its lines.
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// FindByOrderID returns the tracking snapshot of an order.
	FindByOrderID(ctx context.Context, id uuid.UUID) (*model.TrackingSnapshot, error)

	// FindByTrackingNumber returns the tracking snapshot for a carrier
	// tracking number.
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*model.TrackingSnapshot, error)
}

// PaymentService retries payment session creation for stored orders.
type PaymentService interface {
	// CreateSession returns a new redirect URL for a pending card or wallet
	// order. The stored total is charged; a differing amount is ignored.
	CreateSession(ctx context.Context, orderID uuid.UUID, amount *decimal.Decimal) (string, error)
}

// NotificationService re-sends guest order confirmations on request.
type NotificationService interface {
	// SendGuestNotification schedules a confirmation. It never fails the
	// caller; problems are logged.
	SendGuestNotification(ctx context.Context, req *model.GuestNotificationRequest)
}

// Notifier schedules guest notifications.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.GuestNotification)
}

// Gateways resolves the payment gateway for a method.
type Gateways interface {
	For(method model.PaymentMethod) (payment.Gateway, error)
}

// PlaceOrderCommand is a checkout submission. Actor is nil for anonymous
// callers.
type PlaceOrderCommand struct {
	Request *model.OrderRequest
	Actor   *model.Actor
}

// PlaceOrderResult is a stored order plus the payment redirect, if any.
type PlaceOrderResult struct {
	Order      *model.Order
	PaymentURL string
}

// TransitionCommand requests a status change.
type TransitionCommand struct {
	OrderID     uuid.UUID
	Status      string
	Actor       model.Actor
	Location    string
	Description string
}

// AttachTrackingCommand assigns a carrier tracking number.
type AttachTrackingCommand struct {
	OrderID        uuid.UUID
	TrackingNumber string
	Location       string
	Actor          model.Actor
}
