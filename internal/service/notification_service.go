package service

import (
	"context"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notificationService implements NotificationService.
type notificationService struct {
	orderRepo repository.OrderRepository
	notifier  Notifier
	logger    zerolog.Logger
}

// NewNotificationService creates a guest notification service.
func NewNotificationService(orderRepo repository.OrderRepository, notifier Notifier, logger zerolog.Logger) NotificationService {
	return &notificationService{
		orderRepo: orderRepo,
		notifier:  notifier,
		logger:    logger.With().Str("service", "notification").Logger(),
	}
}

// SendGuestNotification re-sends the confirmation for a stored order. The
// recipient, lines and totals always come from the order itself; request
// details other than the order id are ignored, so an anonymous caller can
// only reach the contacts captured at checkout.
func (s *notificationService) SendGuestNotification(ctx context.Context, req *model.GuestNotificationRequest) {
	if req == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	raw := strings.TrimSpace(req.OrderID)
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Info().Str("order_id", raw).Msg("notification skipped, order id is not valid")
		return
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("notification skipped, order lookup failed")
		return
	}
	if order == nil {
		s.logger.Info().Str("order_id", id.String()).Msg("notification skipped, order not found")
		return
	}

	s.notifier.Dispatch(ctx, guestNotificationFor(order))
}
