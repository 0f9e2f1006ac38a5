package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// statusService implements StatusService.
type statusService struct {
	orderRepo repository.OrderRepository
	cache     cache.TrackingCache
	now       func() time.Time
	logger    zerolog.Logger
}

// NewStatusService creates a new order status service.
func NewStatusService(orderRepo repository.OrderRepository, trackingCache cache.TrackingCache, logger zerolog.Logger) StatusService {
	return &statusService{
		orderRepo: orderRepo,
		cache:     trackingCache,
		now:       time.Now,
		logger:    logger.With().Str("service", "order-status").Logger(),
	}
}

// Transition applies a status change after checking the actor's scope and
// the transition table. The update only succeeds if the status read here is
// still current at write time.
func (s *statusService) Transition(ctx context.Context, cmd TransitionCommand) (*model.Order, error) {
	target, err := model.ParseOrderStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	order, err := s.loadManaged(ctx, cmd.OrderID, cmd.Actor)
	if err != nil {
		return nil, err
	}

	noop, err := model.CheckTransition(order.Status, target)
	if err != nil {
		s.logger.Info().
			Str("order_id", order.ID.String()).
			Str("from", order.Status.String()).
			Str("to", target.String()).
			Msg("transition rejected")
		return nil, err
	}
	if noop {
		return order, nil
	}

	description := strings.TrimSpace(cmd.Description)
	if description == "" {
		description = target.Description()
	}

	now := s.now().UTC()
	event := &model.TrackingEvent{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Status:      target,
		Description: description,
		Location:    strings.TrimSpace(cmd.Location),
		CreatedAt:   now,
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, order.Status, target, now); err != nil {
			return err
		}
		return s.orderRepo.AppendTrackingEvent(ctx, tx, event)
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("to", target.String()).
			Msg("failed to update order status")
		return nil, wrapUnlessDomain(err, "failed to update order status")
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("from", order.Status.String()).
		Str("status", target.String()).
		Str("actor", cmd.Actor.UserID).
		Msg("order status updated")

	order.Status = target
	order.UpdatedAt = now
	s.cache.Invalidate(context.WithoutCancel(ctx), cache.KeysFor(order)...)

	return order, nil
}

// AttachTrackingNumber stores the carrier tracking number and records an
// informational event in the order's current status.
func (s *statusService) AttachTrackingNumber(ctx context.Context, cmd AttachTrackingCommand) (*model.Order, error) {
	trackingNumber := strings.TrimSpace(cmd.TrackingNumber)
	if trackingNumber == "" {
		return nil, model.NewFieldError("trackingNumber", "is required")
	}

	order, err := s.loadManaged(ctx, cmd.OrderID, cmd.Actor)
	if err != nil {
		return nil, err
	}

	if order.Status == model.StatusCancelled {
		return nil, fmt.Errorf("%w: order is %s", model.ErrIllegalTransition, order.Status)
	}

	staleKeys := cache.KeysFor(order)

	now := s.now().UTC()
	event := &model.TrackingEvent{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Status:      order.Status,
		Description: "Tracking number assigned: " + trackingNumber,
		Location:    strings.TrimSpace(cmd.Location),
		CreatedAt:   now,
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.orderRepo.SetTrackingNumber(ctx, tx, order.ID, trackingNumber, now); err != nil {
			return err
		}
		return s.orderRepo.AppendTrackingEvent(ctx, tx, event)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to set tracking number")
		return nil, wrapUnlessDomain(err, "failed to set tracking number")
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("tracking_number", trackingNumber).
		Msg("tracking number assigned")

	order.TrackingNumber = &trackingNumber
	order.UpdatedAt = now
	s.cache.Invalidate(context.WithoutCancel(ctx), append(staleKeys, cache.TrackingNumberKey(trackingNumber))...)

	return order, nil
}

// ListOrders scopes vendors to orders containing their lines. Admins see
// every order and may narrow by vendor.
func (s *statusService) ListOrders(ctx context.Context, actor model.Actor, filter model.OrderFilter) ([]model.Order, error) {
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleVendor:
		if actor.VendorID == "" {
			return nil, model.ErrForbidden
		}
		filter.VendorID = actor.VendorID
	default:
		return nil, model.ErrForbidden
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	orders, err := s.orderRepo.ListOrders(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("vendor_id", filter.VendorID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// loadManaged fetches an order and checks the actor may manage it.
func (s *statusService) loadManaged(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !actor.CanManage(order) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor", actor.UserID).
			Str("role", string(actor.Role)).
			Str("vendor_id", actor.VendorID).
			Msg("actor outside order scope")
		return nil, model.ErrForbidden
	}

	return order, nil
}
