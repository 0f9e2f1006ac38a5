package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// promoRepository implements the PromoRepository interface using PostgreSQL.
type promoRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPromoRepository creates a new PostgreSQL-backed promo code repository.
func NewPromoRepository(pool *pgxpool.Pool, logger zerolog.Logger) PromoRepository {
	return &promoRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "promo").Logger(),
	}
}

// GetByCode retrieves a promo code by its normalised code.
func (r *promoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	query := `
		SELECT code, kind, value, min_order_amount, max_discount,
			buy_quantity, get_quantity, starts_at, ends_at, usage_limit, usage_count
		FROM promo_codes
		WHERE code = $1
	`

	var p model.PromoCode
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&p.Code, &p.Kind, &p.Value, &p.MinOrderAmount, &p.MaxDiscount,
		&p.BuyQuantity, &p.GetQuantity, &p.StartsAt, &p.EndsAt, &p.UsageLimit, &p.UsageCount,
	)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("promo_code", code).Msg("promo code not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("promo_code", code).Msg("failed to query promo code")
		return nil, fmt.Errorf("failed to query promo code: %w", err)
	}

	return &p, nil
}

// Redeem consumes one use of code. The row is only touched when the code
// is inside its window and below its usage limit, so concurrent checkouts
// can never push usage_count past usage_limit.
func (r *promoRepository) Redeem(ctx context.Context, tx pgx.Tx, code string, now time.Time) error {
	query := `
		UPDATE promo_codes
		SET usage_count = usage_count + 1
		WHERE code = $1
			AND starts_at <= $2 AND ends_at >= $2
			AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, code, now)
	if err != nil {
		r.logger.Error().Err(err).Str("promo_code", code).Msg("failed to redeem promo code")
		return fmt.Errorf("failed to redeem promo code: %w", err)
	}

	if tag.RowsAffected() == 0 {
		reason := r.rejectionReason(ctx, tx, code, now)
		r.logger.Warn().Err(reason).Str("promo_code", code).Msg("promo code redemption rejected")
		return reason
	}

	return nil
}

// rejectionReason explains a redemption that matched no row. The code may
// have been removed, left its window or run out of uses since validation.
func (r *promoRepository) rejectionReason(ctx context.Context, tx pgx.Tx, code string, now time.Time) error {
	var startsAt, endsAt time.Time
	err := tx.QueryRow(ctx, `SELECT starts_at, ends_at FROM promo_codes WHERE code = $1`, code).Scan(&startsAt, &endsAt)
	if err != nil {
		if isNoRows(err) {
			return model.ErrInvalidPromoCode
		}
		r.logger.Error().Err(err).Str("promo_code", code).Msg("failed to read rejected promo code")
		return model.ErrPromoUsageExhausted
	}

	if now.Before(startsAt) || now.After(endsAt) {
		return model.ErrPromoExpired
	}
	return model.ErrPromoUsageExhausted
}

// Upsert inserts or updates promo definitions. Accumulated usage counts
// are preserved on update.
func (r *promoRepository) Upsert(ctx context.Context, promos []model.PromoCode) error {
	if len(promos) == 0 {
		return nil
	}

	query := `
		INSERT INTO promo_codes (
			code, kind, value, min_order_amount, max_discount,
			buy_quantity, get_quantity, starts_at, ends_at, usage_limit
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE
		SET kind = EXCLUDED.kind,
			value = EXCLUDED.value,
			min_order_amount = EXCLUDED.min_order_amount,
			max_discount = EXCLUDED.max_discount,
			buy_quantity = EXCLUDED.buy_quantity,
			get_quantity = EXCLUDED.get_quantity,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			usage_limit = EXCLUDED.usage_limit
	`

	batch := &pgx.Batch{}
	for _, p := range promos {
		batch.Queue(query,
			p.Code, p.Kind, p.Value, p.MinOrderAmount, p.MaxDiscount,
			p.BuyQuantity, p.GetQuantity, p.StartsAt, p.EndsAt, p.UsageLimit,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range promos {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().Err(err).Str("promo_code", promos[i].Code).Msg("failed to upsert promo code")
			return fmt.Errorf("failed to upsert promo code %s: %w", promos[i].Code, err)
		}
	}

	r.logger.Debug().Int("count", len(promos)).Msg("promo codes upserted")
	return nil
}
