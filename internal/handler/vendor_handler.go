package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// VendorHandler handles order management requests from vendors and
// administrators.
type VendorHandler struct {
	status service.StatusService
	logger zerolog.Logger
}

// NewVendorHandler creates a new vendor handler.
func NewVendorHandler(status service.StatusService, logger zerolog.Logger) *VendorHandler {
	return &VendorHandler{
		status: status,
		logger: logger.With().Str("handler", "vendor").Logger(),
	}
}

// UpdateStatus handles PUT /vendor/orders/{id} requests.
func (h *VendorHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, chi.URLParam(r, "id"), h.logger)
	if !ok {
		return
	}

	var req model.StatusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.Status == "" {
		writeServiceError(w, model.NewFieldError("status", "is required"), h.logger)
		return
	}

	order, err := h.status.Transition(r.Context(), service.TransitionCommand{
		OrderID:     orderID,
		Status:      req.Status,
		Actor:       actor,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// SetTracking handles PUT /vendor/orders/{id}/tracking requests.
func (h *VendorHandler) SetTracking(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(w, chi.URLParam(r, "id"), h.logger)
	if !ok {
		return
	}

	var req model.TrackingNumberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.status.AttachTrackingNumber(r.Context(), service.AttachTrackingCommand{
		OrderID:        orderID,
		TrackingNumber: req.TrackingNumber,
		Location:       req.Location,
		Actor:          actor,
	})
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// List handles GET /vendor/orders requests.
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var filter model.OrderFilter

	if raw := query.Get("status"); raw != "" {
		status, err := model.ParseOrderStatus(raw)
		if err != nil {
			writeServiceError(w, err, h.logger)
			return
		}
		filter.Status = &status
	}

	var err error
	if filter.Limit, err = intQuery(query.Get("limit"), "limit"); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if filter.Offset, err = intQuery(query.Get("offset"), "offset"); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	orders, err := h.status.ListOrders(r.Context(), actor, filter)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *VendorHandler) actor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "authentication required", h.logger)
	}
	return actor, ok
}

func intQuery(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewFieldError(field, "must be an integer")
	}
	return n, nil
}
