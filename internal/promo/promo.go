// Package promo evaluates promo codes and imports promo catalogs.
package promo

import (
	"context"
	"strings"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Evaluator defines the interface for promo code evaluation.
type Evaluator interface {
	// Validate checks a code against a subtotal and returns the discount it
	// would apply. A valid code must:
	// - Exist after normalisation
	// - Be inside its validity window
	// - Not be below its minimum order amount
	// - Have uses left when it carries a usage limit
	// Validate never consumes a use.
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*model.DiscountResult, error)
}

// Store is the promo code lookup the evaluator reads from.
type Store interface {
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
}

// Loader defines the interface for loading promo catalog files.
type Loader interface {
	// Load reads a gzipped JSON-lines catalog, one promo code per line.
	Load(ctx context.Context, path string) ([]model.PromoCode, error)
}

// Normalize trims and upper-cases a promo code.
func Normalize(code string) string {
	// Casers are stateful, so one is built per call.
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}
