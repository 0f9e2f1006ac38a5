package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalogue view the checkout reads prices and vendor
// ownership from.
type Product struct {
	ID        string          `json:"id" db:"id"`
	VendorID  string          `json:"vendorId" db:"vendor_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Category  string          `json:"category" db:"category"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
