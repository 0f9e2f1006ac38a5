package service

import (
	"context"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	args := m.Called(ctx, tx, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Order, error) {
	args := m.Called(ctx, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus, at time.Time) error {
	args := m.Called(ctx, tx, id, from, to, at)
	return args.Error(0)
}

func (m *MockOrderRepository) SetTrackingNumber(ctx context.Context, tx pgx.Tx, id uuid.UUID, trackingNumber string, at time.Time) error {
	args := m.Called(ctx, tx, id, trackingNumber, at)
	return args.Error(0)
}

func (m *MockOrderRepository) AppendTrackingEvent(ctx context.Context, tx pgx.Tx, event *model.TrackingEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *MockOrderRepository) ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]model.TrackingEvent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TrackingEvent), args.Error(1)
}

func (m *MockOrderRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Upsert(ctx context.Context, products []model.Product) error {
	args := m.Called(ctx, products)
	return args.Error(0)
}

// MockPromoRepository is a mock implementation of PromoRepository.
type MockPromoRepository struct {
	mock.Mock
}

func (m *MockPromoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PromoCode), args.Error(1)
}

func (m *MockPromoRepository) Redeem(ctx context.Context, tx pgx.Tx, code string, now time.Time) error {
	args := m.Called(ctx, tx, code, now)
	return args.Error(0)
}

func (m *MockPromoRepository) Upsert(ctx context.Context, promos []model.PromoCode) error {
	args := m.Called(ctx, promos)
	return args.Error(0)
}

// MockEvaluator is a mock implementation of promo.Evaluator.
type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*model.DiscountResult, error) {
	args := m.Called(ctx, code, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DiscountResult), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Session), args.Error(1)
}

// MockNotifier records dispatched notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(ctx context.Context, n notify.GuestNotification) {
	m.Called(ctx, n)
}

// memoryCache is an in-memory TrackingCache for asserting invalidation.
type memoryCache struct {
	entries     map[string]*model.TrackingSnapshot
	versions    map[string]cache.Version
	invalidated []string
	ctxErrs     []error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries:  map[string]*model.TrackingSnapshot{},
		versions: map[string]cache.Version{},
	}
}

func (c *memoryCache) Get(ctx context.Context, key string) (*model.TrackingSnapshot, cache.Version, bool) {
	s, ok := c.entries[key]
	return s, c.versions[key], ok
}

func (c *memoryCache) Set(ctx context.Context, key string, version cache.Version, snapshot *model.TrackingSnapshot) {
	if c.versions[key] != version {
		return
	}
	c.entries[key] = snapshot
}

func (c *memoryCache) Invalidate(ctx context.Context, keys ...string) {
	c.ctxErrs = append(c.ctxErrs, ctx.Err())
	for _, k := range keys {
		delete(c.entries, k)
		c.versions[k]++
		c.invalidated = append(c.invalidated, k)
	}
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }
