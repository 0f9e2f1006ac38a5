package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// trackingService implements TrackingService.
type trackingService struct {
	orderRepo    repository.OrderRepository
	cache        cache.TrackingCache
	estimateDays int
	logger       zerolog.Logger
}

// NewTrackingService creates a tracking service. Estimated delivery is the
// order's creation time plus estimateDays.
func NewTrackingService(orderRepo repository.OrderRepository, trackingCache cache.TrackingCache, estimateDays int, logger zerolog.Logger) TrackingService {
	return &trackingService{
		orderRepo:    orderRepo,
		cache:        trackingCache,
		estimateDays: estimateDays,
		logger:       logger.With().Str("service", "tracking").Logger(),
	}
}

// GetOrder retrieves an order with its lines.
func (s *trackingService) GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// FindByOrderID returns the tracking snapshot of an order.
func (s *trackingService) FindByOrderID(ctx context.Context, id uuid.UUID) (*model.TrackingSnapshot, error) {
	key := cache.OrderKey(id.String())
	snapshot, version, ok := s.cache.Get(ctx, key)
	if ok {
		return snapshot, nil
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.snapshot(ctx, key, version, order)
}

// FindByTrackingNumber returns the tracking snapshot for a carrier
// tracking number.
func (s *trackingService) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*model.TrackingSnapshot, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, model.NewFieldError("trackingNumber", "is required")
	}

	key := cache.TrackingNumberKey(trackingNumber)
	snapshot, version, ok := s.cache.Get(ctx, key)
	if ok {
		return snapshot, nil
	}

	order, err := s.orderRepo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("tracking_number", trackingNumber).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	return s.snapshot(ctx, key, version, order)
}

func (s *trackingService) snapshot(ctx context.Context, key string, version cache.Version, order *model.Order) (*model.TrackingSnapshot, error) {
	events, err := s.orderRepo.ListTrackingEvents(ctx, order.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to list tracking events")
		return nil, fmt.Errorf("failed to list tracking events: %w", err)
	}
	if events == nil {
		events = []model.TrackingEvent{}
	}

	snapshot := &model.TrackingSnapshot{
		Order:             order,
		TrackingEvents:    events,
		EstimatedDelivery: order.CreatedAt.AddDate(0, 0, s.estimateDays),
	}

	s.cache.Set(ctx, key, version, snapshot)
	return snapshot, nil
}
