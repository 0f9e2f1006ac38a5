package handler

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles customer facing order requests.
type OrderHandler struct {
	checkout      service.CheckoutService
	tracking      service.TrackingService
	notifications service.NotificationService
	logger        zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(
	checkout service.CheckoutService,
	tracking service.TrackingService,
	notifications service.NotificationService,
	logger zerolog.Logger,
) *OrderHandler {
	return &OrderHandler{
		checkout:      checkout,
		tracking:      tracking,
		notifications: notifications,
		logger:        logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	cmd := service.PlaceOrderCommand{Request: &req}
	if actor, ok := middleware.ActorFromContext(r.Context()); ok {
		cmd.Actor = &actor
	}

	result, err := h.checkout.PlaceOrder(r.Context(), cmd)
	if result == nil {
		if err == nil {
			err = errors.New("checkout returned no order")
		}
		writeServiceError(w, err, h.logger)
		return
	}

	resp := model.OrderResponse{Order: result.Order, PaymentURL: result.PaymentURL}
	if err != nil {
		h.logger.Warn().Err(err).Str("order_id", result.Order.ID.String()).Msg("order stored without payment session")
		resp.PaymentError = paymentErrorMessage(err)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetByID handles GET /orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.orderIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.tracking.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Track handles GET /orders/track requests. Exactly one of orderId or
// trackingNumber is used; orderId wins when both are present.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	orderIDStr := strings.TrimSpace(query.Get("orderId"))
	trackingNumber := strings.TrimSpace(query.Get("trackingNumber"))

	var (
		snapshot *model.TrackingSnapshot
		err      error
	)
	switch {
	case orderIDStr != "":
		orderID, parseErr := uuid.Parse(orderIDStr)
		if parseErr != nil {
			// An id that cannot exist is reported like any other unknown order.
			writeServiceError(w, model.ErrOrderNotFound, h.logger)
			return
		}
		snapshot, err = h.tracking.FindByOrderID(r.Context(), orderID)
	case trackingNumber != "":
		snapshot, err = h.tracking.FindByTrackingNumber(r.Context(), trackingNumber)
	default:
		err = model.NewFieldError("orderId", "orderId or trackingNumber is required")
	}

	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// SendGuestNotifications handles POST /orders/send-guest-notifications.
// Any decodable body is accepted; delivery happens in the background.
func (h *OrderHandler) SendGuestNotifications(w http.ResponseWriter, r *http.Request) {
	var req model.GuestNotificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	h.notifications.SendGuestNotification(r.Context(), &req)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *OrderHandler) orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return parseOrderID(w, chi.URLParam(r, "id"), h.logger)
}

func parseOrderID(w http.ResponseWriter, raw string, logger zerolog.Logger) (uuid.UUID, bool) {
	if raw == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidID, "order ID is required", logger)
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid order ID format", logger)
		return uuid.Nil, false
	}
	return orderID, true
}

// paymentErrorMessage is the customer facing text for a failed payment
// session. Unknown failures are reported as a retryable outage.
func paymentErrorMessage(err error) string {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return model.ErrPaymentUnavailable.Message
}
