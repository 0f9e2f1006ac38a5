package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo repository.OrderRepository
	gateways  Gateways
	currency  string
	logger    zerolog.Logger
}

// NewPaymentService creates a payment session service.
func NewPaymentService(orderRepo repository.OrderRepository, gateways Gateways, currency string, logger zerolog.Logger) PaymentService {
	return &paymentService{
		orderRepo: orderRepo,
		gateways:  gateways,
		currency:  currency,
		logger:    logger.With().Str("service", "payment").Logger(),
	}
}

func (s *paymentService) CreateSession(ctx context.Context, orderID uuid.UUID, amount *decimal.Decimal) (string, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to get order")
		return "", fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return "", model.ErrOrderNotFound
	}

	if order.Status != model.StatusPending || !order.PaymentMethod.RequiresSession() || !order.Total.IsPositive() {
		s.logger.Debug().
			Str("order_id", order.ID.String()).
			Str("status", order.Status.String()).
			Str("payment_method", string(order.PaymentMethod)).
			Msg("order needs no payment session")
		return "", model.ErrPaymentNotRequired
	}

	if amount != nil && !amount.Equal(order.Total) {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("client_amount", amount.StringFixed(2)).
			Str("total", order.Total.StringFixed(2)).
			Msg("client amount differs from order total")
	}

	gateway, err := s.gateways.For(order.PaymentMethod)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrPaymentUnavailable, err)
	}

	session, err := gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:       order.ID.String(),
		Amount:        order.Total,
		Currency:      s.currency,
		CustomerEmail: order.Shipping.Email,
	})
	if err != nil {
		return "", err
	}

	return session.RedirectURL, nil
}
