package service

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newPaymentFixture() (*MockOrderRepository, *MockGateway, PaymentService) {
	orders := new(MockOrderRepository)
	card := new(MockGateway)
	registry := payment.NewRegistry(map[model.PaymentMethod]payment.Gateway{
		model.PaymentCard:         card,
		model.PaymentBankTransfer: payment.ManualGateway{},
	})
	return orders, card, NewPaymentService(orders, registry, "eur", zerolog.Nop())
}

func TestPaymentService_CreateSession(t *testing.T) {
	ctx := context.Background()
	orders, card, svc := newPaymentFixture()

	order := storedOrder(model.StatusPending)
	order.PaymentMethod = model.PaymentCard
	order.Total = dec("12.50")
	order.Shipping.Email = "ada@example.com"
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	card.On("CreateSession", ctx, payment.SessionRequest{
		OrderID:       order.ID.String(),
		Amount:        order.Total,
		Currency:      "eur",
		CustomerEmail: "ada@example.com",
	}).Return(payment.Session{RedirectURL: "https://pay.example.com/retry"}, nil)

	tampered := dec("1.00")
	url, err := svc.CreateSession(ctx, order.ID, &tampered)

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/retry", url)
	card.AssertExpectations(t)
}

func TestPaymentService_CreateSession_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		status    model.OrderStatus
		method    model.PaymentMethod
		total     string
		expectErr error
	}{
		{name: "already processing", status: model.StatusProcessing, method: model.PaymentCard, total: "10.00", expectErr: model.ErrPaymentNotRequired},
		{name: "offline method", status: model.StatusPending, method: model.PaymentBankTransfer, total: "10.00", expectErr: model.ErrPaymentNotRequired},
		{name: "nothing to pay", status: model.StatusPending, method: model.PaymentCard, total: "0", expectErr: model.ErrPaymentNotRequired},
		{name: "gateway missing", status: model.StatusPending, method: model.PaymentWallet, total: "10.00", expectErr: model.ErrPaymentUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			orders, card, svc := newPaymentFixture()

			order := storedOrder(tt.status)
			order.PaymentMethod = tt.method
			order.Total = dec(tt.total)
			orders.On("GetByID", ctx, order.ID).Return(order, nil)

			url, err := svc.CreateSession(ctx, order.ID, nil)

			assert.Empty(t, url)
			assert.ErrorIs(t, err, tt.expectErr)
			card.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_CreateSession_GatewayFailure(t *testing.T) {
	ctx := context.Background()
	orders, card, svc := newPaymentFixture()

	order := storedOrder(model.StatusPending)
	order.PaymentMethod = model.PaymentCard
	order.Total = dec("5.00")
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	card.On("CreateSession", ctx, mock.Anything).Return(payment.Session{}, model.ErrPaymentConfigMissing)

	_, err := svc.CreateSession(ctx, order.ID, nil)
	assert.ErrorIs(t, err, model.ErrPaymentConfigMissing)
}

func TestPaymentService_CreateSession_NotFound(t *testing.T) {
	ctx := context.Background()
	orders, _, svc := newPaymentFixture()
	id := uuid.New()
	orders.On("GetByID", ctx, id).Return(nil, nil)

	_, err := svc.CreateSession(ctx, id, nil)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}
