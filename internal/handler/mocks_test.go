package handler

import (
	"context"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) PlaceOrder(ctx context.Context, cmd service.PlaceOrderCommand) (*service.PlaceOrderResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PlaceOrderResult), args.Error(1)
}

// MockTrackingService is a mock implementation of TrackingService.
type MockTrackingService struct {
	mock.Mock
}

func (m *MockTrackingService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockTrackingService) FindByOrderID(ctx context.Context, id uuid.UUID) (*model.TrackingSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackingSnapshot), args.Error(1)
}

func (m *MockTrackingService) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*model.TrackingSnapshot, error) {
	args := m.Called(ctx, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackingSnapshot), args.Error(1)
}

// MockNotificationService is a mock implementation of NotificationService.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendGuestNotification(ctx context.Context, req *model.GuestNotificationRequest) {
	m.Called(ctx, req)
}

// MockStatusService is a mock implementation of StatusService.
type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) Transition(ctx context.Context, cmd service.TransitionCommand) (*model.Order, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockStatusService) AttachTrackingNumber(ctx context.Context, cmd service.AttachTrackingCommand) (*model.Order, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockStatusService) ListOrders(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockPaymentService is a mock implementation of PaymentService.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateSession(ctx context.Context, orderID uuid.UUID, amount *decimal.Decimal) (string, error) {
	args := m.Called(ctx, orderID, amount)
	return args.String(0), args.Error(1)
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

// withURLParam attaches a chi route parameter to r.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withActor(r *http.Request, actor model.Actor) *http.Request {
	return r.WithContext(middleware.WithActor(r.Context(), actor))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOrder(id uuid.UUID) *model.Order {
	return &model.Order{
		ID:            id,
		IsGuest:       true,
		Status:        model.StatusPending,
		PaymentMethod: model.PaymentCard,
		Subtotal:      dec("20.00"),
		Total:         dec("20.00"),
		DiscountKind:  model.DiscountNone,
		Lines: []model.OrderLine{
			{ProductID: "P001", VendorID: "V1", ProductName: "Notebook", Quantity: 2, UnitPrice: dec("10.00")},
		},
	}
}
