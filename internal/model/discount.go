package model

import (
	"github.com/shopspring/decimal"
)

// DiscountKind labels the discount applied to an order.
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
	DiscountBuyXGetY   DiscountKind = "buy_x_get_y"
)

// Valid reports whether k is a known discount kind.
func (k DiscountKind) Valid() bool {
	switch k {
	case DiscountNone, DiscountPercentage, DiscountFixed, DiscountBuyXGetY:
		return true
	}
	return false
}

// Discount is the closed set of discount rules: Percentage, Fixed,
// BuyXGetY and None.
type Discount interface {
	Kind() DiscountKind
	discount()
}

// Percentage takes Value percent off the subtotal, optionally capped.
type Percentage struct {
	Value decimal.Decimal
	Cap   *decimal.Decimal
}

// Fixed takes a fixed amount off the subtotal.
type Fixed struct {
	Value decimal.Decimal
}

// BuyXGetY makes Get units free for every Buy+Get units of a line.
type BuyXGetY struct {
	Buy int
	Get int
}

// None applies no discount.
type None struct{}

func (Percentage) Kind() DiscountKind { return DiscountPercentage }
func (Fixed) Kind() DiscountKind      { return DiscountFixed }
func (BuyXGetY) Kind() DiscountKind   { return DiscountBuyXGetY }
func (None) Kind() DiscountKind       { return DiscountNone }

func (Percentage) discount() {}
func (Fixed) discount()      {}
func (BuyXGetY) discount()   {}
func (None) discount()       {}

// PricedLine is the minimum line data needed for line-level discounts.
type PricedLine struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Pricing is the result of applying a discount to a subtotal.
type Pricing struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	Kind     DiscountKind
}

var hundred = decimal.NewFromInt(100)

// ApplyDiscount computes the discount amount and final total for subtotal.
// Lines are only consulted for BuyXGetY. The discount never exceeds the
// subtotal and the total is never negative.
func ApplyDiscount(subtotal decimal.Decimal, lines []PricedLine, d Discount) Pricing {
	if d == nil {
		d = None{}
	}

	amount := decimal.Zero
	switch v := d.(type) {
	case Percentage:
		amount = subtotal.Mul(v.Value).Div(hundred).Round(2)
		if v.Cap != nil && amount.GreaterThan(*v.Cap) {
			amount = *v.Cap
		}
	case Fixed:
		amount = v.Value
	case BuyXGetY:
		amount = freeUnitsValue(lines, v)
	case None:
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}

	total := subtotal.Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Pricing{
		Subtotal: subtotal,
		Discount: amount,
		Total:    total,
		Kind:     d.Kind(),
	}
}

// freeUnitsValue sums the price of the free units on every line.
func freeUnitsValue(lines []PricedLine, rule BuyXGetY) decimal.Decimal {
	group := rule.Buy + rule.Get
	if rule.Buy <= 0 || rule.Get <= 0 {
		return decimal.Zero
	}

	value := decimal.Zero
	for _, line := range lines {
		free := (line.Quantity / group) * rule.Get
		if free > 0 {
			value = value.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(free))))
		}
	}
	return value
}
