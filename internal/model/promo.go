package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PromoCode is a redeemable discount rule.
type PromoCode struct {
	Code           string           `json:"code" db:"code"`
	Kind           DiscountKind     `json:"type" db:"kind"`
	Value          decimal.Decimal  `json:"value" db:"value"`
	MinOrderAmount *decimal.Decimal `json:"minOrderAmount,omitempty" db:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	BuyQuantity    int              `json:"buyQuantity,omitempty" db:"buy_quantity"`
	GetQuantity    int              `json:"getQuantity,omitempty" db:"get_quantity"`
	StartsAt       time.Time        `json:"startDate" db:"starts_at"`
	EndsAt         time.Time        `json:"endDate" db:"ends_at"`
	UsageLimit     *int             `json:"usageLimit,omitempty" db:"usage_limit"`
	UsageCount     int              `json:"usageCount" db:"usage_count"`
}

// Discount returns the discount rule this code applies.
func (p *PromoCode) Discount() Discount {
	switch p.Kind {
	case DiscountPercentage:
		return Percentage{Value: p.Value, Cap: p.MaxDiscount}
	case DiscountFixed:
		return Fixed{Value: p.Value}
	case DiscountBuyXGetY:
		return BuyXGetY{Buy: p.BuyQuantity, Get: p.GetQuantity}
	}
	return None{}
}

// ActiveAt reports whether now falls inside [StartsAt, EndsAt].
func (p *PromoCode) ActiveAt(now time.Time) bool {
	return !now.Before(p.StartsAt) && !now.After(p.EndsAt)
}

// Exhausted reports whether the usage limit has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit
}

// DiscountResult is a successful promo evaluation.
type DiscountResult struct {
	Code     string
	Discount Discount
	Pricing  Pricing
}

// PromoValidateRequest is the body of POST /promo-codes/validate. Items
// are optional; without them line-level discounts preview as zero.
type PromoValidateRequest struct {
	Code        string             `json:"code"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Items       []OrderItemRequest `json:"items,omitempty"`
}

// PromoValidateResponse reports the discount a code would apply.
type PromoValidateResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
	Type     DiscountKind    `json:"type"`
	Total    decimal.Decimal `json:"total"`
}
