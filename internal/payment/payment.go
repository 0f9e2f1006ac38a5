// Package payment adapts payment providers behind a single Gateway contract.
// Gateways never write orders; they only return a redirect target or a
// "no action needed" signal.
package payment

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// SessionRequest describes the payment a customer is asked to make.
type SessionRequest struct {
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
}

// Session is the outcome of a successful gateway call.
type Session struct {
	ID          string
	RedirectURL string
	// NoAction is set by offline methods that need no customer redirect.
	NoAction bool
}

// Gateway creates payment sessions for one payment method.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

// Registry resolves the gateway serving a payment method.
type Registry struct {
	gateways map[model.PaymentMethod]Gateway
}

// NewRegistry creates a registry from an explicit method to gateway map.
func NewRegistry(gateways map[model.PaymentMethod]Gateway) *Registry {
	copied := make(map[model.PaymentMethod]Gateway, len(gateways))
	for method, gw := range gateways {
		copied[method] = gw
	}
	return &Registry{gateways: copied}
}

// For returns the gateway registered for method.
func (r *Registry) For(method model.PaymentMethod) (Gateway, error) {
	gw, ok := r.gateways[method]
	if !ok {
		return nil, fmt.Errorf("%w: no gateway for %q", model.ErrInvalidPaymentMethod, method)
	}
	return gw, nil
}

// ManualGateway serves offline methods such as bank transfer and cash on
// delivery. It makes no external call.
type ManualGateway struct{}

// CreateSession always reports that no customer action is needed.
func (ManualGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	return Session{NoAction: true}, nil
}
