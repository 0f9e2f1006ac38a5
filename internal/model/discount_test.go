package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name         string
		subtotal     string
		lines        []PricedLine
		discount     Discount
		wantDiscount string
		wantTotal    string
		wantKind     DiscountKind
	}{
		{
			name:         "Percentage without cap",
			subtotal:     "100",
			discount:     Percentage{Value: dec("20")},
			wantDiscount: "20",
			wantTotal:    "80",
			wantKind:     DiscountPercentage,
		},
		{
			name:         "Percentage capped",
			subtotal:     "200",
			discount:     Percentage{Value: dec("50"), Cap: decPtr("30")},
			wantDiscount: "30",
			wantTotal:    "170",
			wantKind:     DiscountPercentage,
		},
		{
			name:         "Percentage rounds to cents",
			subtotal:     "19.99",
			discount:     Percentage{Value: dec("15")},
			wantDiscount: "3",
			wantTotal:    "16.99",
			wantKind:     DiscountPercentage,
		},
		{
			name:         "Fixed below subtotal",
			subtotal:     "100",
			discount:     Fixed{Value: dec("10")},
			wantDiscount: "10",
			wantTotal:    "90",
			wantKind:     DiscountFixed,
		},
		{
			name:         "Fixed capped at subtotal",
			subtotal:     "10",
			discount:     Fixed{Value: dec("20")},
			wantDiscount: "10",
			wantTotal:    "0",
			wantKind:     DiscountFixed,
		},
		{
			name:     "Buy two get one",
			subtotal: "70",
			lines: []PricedLine{
				{Quantity: 3, UnitPrice: dec("10")},
				{Quantity: 2, UnitPrice: dec("20")},
			},
			discount:     BuyXGetY{Buy: 2, Get: 1},
			wantDiscount: "10",
			wantTotal:    "60",
			wantKind:     DiscountBuyXGetY,
		},
		{
			name:         "Buy x get y without lines",
			subtotal:     "70",
			discount:     BuyXGetY{Buy: 2, Get: 1},
			wantDiscount: "0",
			wantTotal:    "70",
			wantKind:     DiscountBuyXGetY,
		},
		{
			name:         "None",
			subtotal:     "42.50",
			discount:     None{},
			wantDiscount: "0",
			wantTotal:    "42.5",
			wantKind:     DiscountNone,
		},
		{
			name:         "Nil discount",
			subtotal:     "5",
			discount:     nil,
			wantDiscount: "0",
			wantTotal:    "5",
			wantKind:     DiscountNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ApplyDiscount(dec(tt.subtotal), tt.lines, tt.discount)

			assert.True(t, dec(tt.wantDiscount).Equal(p.Discount), "discount %s", p.Discount)
			assert.True(t, dec(tt.wantTotal).Equal(p.Total), "total %s", p.Total)
			assert.Equal(t, tt.wantKind, p.Kind)
		})
	}
}

func TestApplyDiscount_TotalNeverNegative(t *testing.T) {
	discounts := []Discount{
		Fixed{Value: dec("1000")},
		Percentage{Value: dec("250")},
		BuyXGetY{Buy: 1, Get: 5},
		Fixed{Value: dec("-5")},
	}
	subtotals := []string{"0", "0.01", "9.99", "100"}

	for _, d := range discounts {
		for _, s := range subtotals {
			subtotal := dec(s)
			p := ApplyDiscount(subtotal, []PricedLine{{Quantity: 6, UnitPrice: subtotal}}, d)

			assert.False(t, p.Total.IsNegative(), "%T on %s", d, s)
			assert.False(t, p.Discount.GreaterThan(subtotal), "%T on %s", d, s)
			assert.True(t, p.Total.Equal(subtotal.Sub(p.Discount)), "%T on %s", d, s)
		}
	}
}
