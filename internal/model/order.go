package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod tags how an order is paid.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentWallet         PaymentMethod = "wallet"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// DefaultPaymentMethod applies when a checkout names no method at all.
const DefaultPaymentMethod = PaymentCashOnDelivery

// ParsePaymentMethod normalises a client supplied payment method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentCard, PaymentWallet, PaymentBankTransfer, PaymentCashOnDelivery:
		return m, nil
	case "":
		return "", NewFieldError("paymentMethod", "is required")
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

// RequiresSession reports whether the method needs a hosted payment session.
func (m PaymentMethod) RequiresSession() bool {
	return m == PaymentCard || m == PaymentWallet
}

// ShippingAddress is the contact and delivery snapshot captured at checkout.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order represents a customer order.
type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	AccountID      *string         `json:"accountId,omitempty" db:"account_id"`
	IsGuest        bool            `json:"isGuest" db:"is_guest"`
	Status         OrderStatus     `json:"status" db:"status"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount" db:"discount_amount"`
	DiscountKind   DiscountKind    `json:"discountType" db:"discount_kind"`
	PromoCode      *string         `json:"promoCode,omitempty" db:"promo_code"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Shipping       ShippingAddress `json:"shippingInfo"`
	TrackingNumber *string         `json:"trackingNumber,omitempty" db:"tracking_number"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	Lines          []OrderLine     `json:"items"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderLine represents a line item in an order. UnitPrice is frozen at
// order time.
type OrderLine struct {
	ID          uuid.UUID       `json:"-" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	ProductID   string          `json:"productId" db:"product_id"`
	VendorID    string          `json:"vendorId" db:"vendor_id"`
	ProductName string          `json:"name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"price" db:"unit_price"`
}

// LineTotal returns unit price times quantity.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// HasVendor reports whether any line of the order belongs to vendorID.
func (o *Order) HasVendor(vendorID string) bool {
	if vendorID == "" {
		return false
	}
	for _, l := range o.Lines {
		if l.VendorID == vendorID {
			return true
		}
	}
	return false
}

// OrderRequest represents the request payload for creating an order.
// Client computed amounts are accepted for compatibility but never trusted.
type OrderRequest struct {
	Items          []OrderItemRequest `json:"items"`
	CustomerInfo   CustomerInfo       `json:"customerInfo"`
	PaymentMethod  string             `json:"paymentMethod"`
	PromoCode      *string            `json:"promoCode,omitempty"`
	IsGuest        bool               `json:"isGuest"`
	TotalAmount    *decimal.Decimal   `json:"totalAmount,omitempty"`
	OriginalAmount *decimal.Decimal   `json:"originalAmount,omitempty"`
	Discount       *decimal.Decimal   `json:"discount,omitempty"`
	DiscountType   string             `json:"discountType,omitempty"`
	Status         string             `json:"status,omitempty"`
}

// ResolvePaymentMethod reads the top-level method, then the one nested in
// customerInfo, and defaults to cash on delivery when neither is set.
func (r *OrderRequest) ResolvePaymentMethod() (PaymentMethod, error) {
	raw := strings.TrimSpace(r.PaymentMethod)
	if raw == "" {
		raw = strings.TrimSpace(r.CustomerInfo.PaymentMethod)
	}
	if raw == "" {
		return DefaultPaymentMethod, nil
	}
	return ParsePaymentMethod(raw)
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// CustomerInfo is the contact block of the checkout form.
type CustomerInfo struct {
	FullName   string `json:"fullName"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Notes      string `json:"notes,omitempty"`

	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// DisplayName returns FullName, falling back to Name.
func (c CustomerInfo) DisplayName() string {
	if name := strings.TrimSpace(c.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(c.Name)
}

// OrderResponse is returned by order creation and lookup.
type OrderResponse struct {
	*Order
	PaymentURL   string `json:"paymentUrl,omitempty"`
	PaymentError string `json:"paymentError,omitempty"`
}

// StatusUpdateRequest is the body of PUT /vendor/orders/{id}.
type StatusUpdateRequest struct {
	Status      string `json:"status"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// TrackingNumberRequest is the body of PUT /vendor/orders/{id}/tracking.
type TrackingNumberRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Location       string `json:"location,omitempty"`
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	VendorID string
	Status   *OrderStatus
	Limit    int
	Offset   int
}
