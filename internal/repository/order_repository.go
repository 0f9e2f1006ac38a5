package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `o.id, o.account_id, o.is_guest, o.status, o.payment_method,
	o.subtotal, o.discount_amount, o.discount_kind, o.promo_code, o.total,
	o.full_name, o.email, o.phone, o.street, o.city, o.postal_code, o.country,
	o.tracking_number, o.notes, o.created_at, o.updated_at`

const defaultListLimit = 50

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	sb     sq.StatementBuilderType
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, account_id, is_guest, status, payment_method,
			subtotal, discount_amount, discount_kind, promo_code, total,
			full_name, email, phone, street, city, postal_code, country,
			tracking_number, notes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	s := order.Shipping
	_, err := tx.Exec(ctx, query,
		order.ID, order.AccountID, order.IsGuest, order.Status, order.PaymentMethod,
		order.Subtotal, order.DiscountAmount, order.DiscountKind, order.PromoCode, order.Total,
		s.FullName, s.Email, s.Phone, s.Street, s.City, s.PostalCode, s.Country,
		order.TrackingNumber, order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("status", order.Status.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderLines inserts multiple order lines within the provided transaction.
func (r *orderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, vendor_id, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(query, l.ID, l.OrderID, l.ProductID, l.VendorID, l.ProductName, l.Quantity, l.UnitPrice)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(lines); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", lines[i].OrderID.String()).
				Str("product_id", lines[i].ProductID).
				Msg("failed to create order line")
			return fmt.Errorf("failed to create order line: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(lines)).
		Msg("order lines created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its lines.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := r.attachLines(ctx, []*model.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// GetByTrackingNumber retrieves an order by its carrier tracking number.
func (r *orderRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.tracking_number = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, trackingNumber))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("tracking_number", trackingNumber).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("tracking_number", trackingNumber).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order by tracking number: %w", err)
	}

	if err := r.attachLines(ctx, []*model.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateStatus performs a compare-and-set on the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus, at time.Time) error {
	query := `
		UPDATE orders
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`

	tag, err := tx.Exec(ctx, query, id, from, to, at)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", to.String()).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("order_id", id.String()).
			Str("expected_status", from.String()).
			Msg("order status changed concurrently")
		return model.ErrStatusConflict
	}

	return nil
}

// SetTrackingNumber assigns the carrier tracking number. Cancelled orders
// are left untouched even when the cancellation lands after the caller
// loaded the order.
func (r *orderRepository) SetTrackingNumber(ctx context.Context, tx pgx.Tx, id uuid.UUID, trackingNumber string, at time.Time) error {
	query := `
		UPDATE orders
		SET tracking_number = $2, updated_at = $3
		WHERE id = $1 AND status <> $4
	`

	tag, err := tx.Exec(ctx, query, id, trackingNumber, at, model.StatusCancelled)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrTrackingNumberInUse
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set tracking number")
		return fmt.Errorf("failed to set tracking number: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to check order")
			return fmt.Errorf("failed to set tracking number: %w", err)
		}
		if !exists {
			return model.ErrOrderNotFound
		}
		r.logger.Warn().Str("order_id", id.String()).Msg("tracking number rejected, order is cancelled")
		return fmt.Errorf("%w: order is %s", model.ErrIllegalTransition, model.StatusCancelled)
	}

	return nil
}

// AppendTrackingEvent records a status history entry.
func (r *orderRepository) AppendTrackingEvent(ctx context.Context, tx pgx.Tx, event *model.TrackingEvent) error {
	query := `
		INSERT INTO tracking_events (id, order_id, status, description, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query,
		event.ID, event.OrderID, event.Status, event.Description, event.Location, event.CreatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", event.OrderID.String()).
			Str("status", event.Status.String()).
			Msg("failed to append tracking event")
		return fmt.Errorf("failed to append tracking event: %w", err)
	}

	return nil
}

// ListTrackingEvents returns the order's tracking history, oldest first.
func (r *orderRepository) ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]model.TrackingEvent, error) {
	query := `
		SELECT id, order_id, status, description, location, created_at
		FROM tracking_events
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query tracking events")
		return nil, fmt.Errorf("failed to query tracking events: %w", err)
	}
	defer rows.Close()

	events := []model.TrackingEvent{}
	for rows.Next() {
		var e model.TrackingEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Description, &e.Location, &e.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan tracking event row")
			return nil, fmt.Errorf("failed to scan tracking event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating tracking event rows")
		return nil, fmt.Errorf("error iterating tracking events: %w", err)
	}

	return events, nil
}

// ListOrders returns orders matching filter, newest first. A vendor filter
// keeps orders containing at least one of the vendor's lines.
func (r *orderRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	query := r.sb.
		Select(orderColumns).
		From("orders o").
		OrderBy("o.created_at DESC", "o.id")

	if filter.VendorID != "" {
		query = query.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.vendor_id = ?)",
			filter.VendorID,
		))
	}

	if filter.Status != nil {
		query = query.Where(sq.Eq{"o.status": *filter.Status})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query = query.Limit(uint64(limit))

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("vendor_id", filter.VendorID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var refs []*model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		refs = append(refs, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachLines(ctx, refs); err != nil {
		return nil, err
	}

	orders := make([]model.Order, len(refs))
	for i, o := range refs {
		orders[i] = *o
	}
	return orders, nil
}

// attachLines loads the lines of every order in one query.
func (r *orderRepository) attachLines(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.Order, len(orders))
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		o.Lines = []model.OrderLine{}
		byID[o.ID] = o
		ids[i] = o.ID
	}

	sql, args, err := r.sb.
		Select("id", "order_id", "product_id", "vendor_id", "product_name", "quantity", "unit_price").
		From("order_items").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("order_id", "product_name", "id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(orders)).Msg("failed to query order lines")
		return fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.VendorID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line row")
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		if o, ok := byID[l.OrderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order line rows")
		return fmt.Errorf("error iterating order lines: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	s := &o.Shipping
	err := row.Scan(
		&o.ID, &o.AccountID, &o.IsGuest, &o.Status, &o.PaymentMethod,
		&o.Subtotal, &o.DiscountAmount, &o.DiscountKind, &o.PromoCode, &o.Total,
		&s.FullName, &s.Email, &s.Phone, &s.Street, &s.City, &s.PostalCode, &s.Country,
		&o.TrackingNumber, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
