package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines read access to the product catalogue.
type ProductRepository interface {
	// GetByIDs retrieves multiple products by their IDs. Unknown IDs are
	// silently absent from the result.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// Upsert inserts or replaces catalogue entries. Used by seeding tools.
	Upsert(ctx context.Context, products []model.Product) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderLines inserts the order's lines within the provided transaction.
	CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error

	// GetByID retrieves an order with its lines. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByTrackingNumber retrieves an order with its lines by carrier
	// tracking number. Returns nil when absent.
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Order, error)

	// UpdateStatus moves the order from one status to another. It fails with
	// model.ErrStatusConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus, at time.Time) error

	// SetTrackingNumber assigns the carrier tracking number.
	SetTrackingNumber(ctx context.Context, tx pgx.Tx, id uuid.UUID, trackingNumber string, at time.Time) error

	// AppendTrackingEvent records a status history entry.
	AppendTrackingEvent(ctx context.Context, tx pgx.Tx, event *model.TrackingEvent) error

	// ListTrackingEvents returns the order's history, oldest first.
	ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]model.TrackingEvent, error)

	// ListOrders returns orders matching the filter, newest first.
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
}

// PromoRepository defines the interface for promo code persistence.
type PromoRepository interface {
	// GetByCode retrieves a promo code. Returns nil when absent.
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)

	// Redeem atomically consumes one use of the code inside tx. It fails
	// with model.ErrPromoUsageExhausted when the code is outside its
	// window or has no uses left at commit time.
	Redeem(ctx context.Context, tx pgx.Tx, code string, now time.Time) error

	// Upsert inserts or updates promo definitions without touching
	// accumulated usage counts.
	Upsert(ctx context.Context, promos []model.PromoCode) error
}
