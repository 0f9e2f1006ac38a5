package promo

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// evaluator implements Evaluator on top of a promo code Store.
type evaluator struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures an evaluator.
type Option func(*evaluator)

// WithClock overrides the time source used for validity windows.
func WithClock(now func() time.Time) Option {
	return func(e *evaluator) {
		e.now = now
	}
}

// NewEvaluator creates a new promo code evaluator.
func NewEvaluator(store Store, logger zerolog.Logger, opts ...Option) Evaluator {
	e := &evaluator{
		store:  store,
		now:    time.Now,
		logger: logger.With().Str("component", "promo-evaluator").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks code against subtotal. Rules are applied in order and
// the first failure wins.
func (e *evaluator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*model.DiscountResult, error) {
	normalised := Normalize(code)
	if normalised == "" {
		return nil, model.ErrInvalidPromoCode
	}

	promo, err := e.store.GetByCode(ctx, normalised)
	if err != nil {
		e.logger.Error().Err(err).Str("promo_code", normalised).Msg("failed to look up promo code")
		return nil, fmt.Errorf("failed to look up promo code: %w", err)
	}

	if promo == nil {
		e.logger.Debug().Str("promo_code", normalised).Msg("promo code not found")
		return nil, model.ErrInvalidPromoCode
	}

	now := e.now()
	if !promo.ActiveAt(now) {
		e.logger.Debug().
			Str("promo_code", normalised).
			Time("starts_at", promo.StartsAt).
			Time("ends_at", promo.EndsAt).
			Msg("promo code outside validity window")
		return nil, model.ErrPromoExpired
	}

	if promo.MinOrderAmount != nil && subtotal.LessThan(*promo.MinOrderAmount) {
		e.logger.Debug().
			Str("promo_code", normalised).
			Str("subtotal", subtotal.StringFixed(2)).
			Str("minimum", promo.MinOrderAmount.StringFixed(2)).
			Msg("order below promo minimum")
		return nil, model.ErrPromoBelowMinimum
	}

	if promo.Exhausted() {
		e.logger.Debug().
			Str("promo_code", normalised).
			Int("usage_count", promo.UsageCount).
			Msg("promo code usage exhausted")
		return nil, model.ErrPromoUsageExhausted
	}

	discount := promo.Discount()
	result := &model.DiscountResult{
		Code:     promo.Code,
		Discount: discount,
		Pricing:  model.ApplyDiscount(subtotal, nil, discount),
	}

	e.logger.Debug().
		Str("promo_code", normalised).
		Str("kind", string(discount.Kind())).
		Str("discount", result.Pricing.Discount.StringFixed(2)).
		Msg("promo code validated successfully")

	return result, nil
}
