package handler

import (
	"errors"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentHandler handles payment session retries.
type PaymentHandler struct {
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(payments service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger.With().Str("handler", "payment").Logger(),
	}
}

// CreateSession handles POST /payments/create-session requests. Payment
// failures are reported as 200 {"error": ...}; callers must check for a
// missing url.
func (h *PaymentHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.OrderID == "" {
		writeServiceError(w, model.NewFieldError("orderId", "is required"), h.logger)
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid order ID format", h.logger)
		return
	}

	url, err := h.payments.CreateSession(r.Context(), orderID, req.Amount)
	if err != nil {
		if isPaymentFailure(err) {
			h.logger.Warn().Err(err).Str("order_id", orderID.String()).Msg("payment session not created")
			writeJSON(w, http.StatusOK, model.PaymentSessionResponse{Error: paymentErrorMessage(err)})
			return
		}
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.PaymentSessionResponse{URL: url})
}

func isPaymentFailure(err error) bool {
	return errors.Is(err, model.ErrPaymentUnavailable) ||
		errors.Is(err, model.ErrPaymentConfigMissing) ||
		errors.Is(err, model.ErrPaymentNotRequired)
}
