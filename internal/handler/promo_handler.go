package handler

import (
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/model"
	"storefront/internal/promo"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PromoHandler handles promo code previews.
type PromoHandler struct {
	evaluator promo.Evaluator
	logger    zerolog.Logger
}

// NewPromoHandler creates a new promo handler.
func NewPromoHandler(evaluator promo.Evaluator, logger zerolog.Logger) *PromoHandler {
	return &PromoHandler{
		evaluator: evaluator,
		logger:    logger.With().Str("handler", "promo").Logger(),
	}
}

// Validate handles POST /promo-codes/validate requests. It never consumes
// a use of the code. When the cart items are sent the subtotal is their sum
// and buy_x_get_y codes are previewed against them; otherwise the preview
// covers totalAmount only and a buy_x_get_y discount shows as zero. The
// preview uses client prices; checkout reprices from the catalogue.
func (h *PromoHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req model.PromoValidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		writeServiceError(w, model.NewFieldError("code", "is required"), h.logger)
		return
	}
	if req.TotalAmount.IsNegative() {
		writeServiceError(w, model.NewFieldError("totalAmount", "must not be negative"), h.logger)
		return
	}

	subtotal := req.TotalAmount
	lines, err := previewLines(req.Items)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if len(lines) > 0 {
		subtotal = decimal.Zero
		for _, l := range lines {
			subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}

	result, err := h.evaluator.Validate(r.Context(), req.Code, subtotal)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	pricing := result.Pricing
	if len(lines) > 0 {
		pricing = model.ApplyDiscount(subtotal, lines, result.Discount)
	}

	writeJSON(w, http.StatusOK, model.PromoValidateResponse{
		Code:     result.Code,
		Discount: pricing.Discount,
		Type:     result.Discount.Kind(),
		Total:    pricing.Total,
	})
}

func previewLines(items []model.OrderItemRequest) ([]model.PricedLine, error) {
	lines := make([]model.PricedLine, 0, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
		if item.Price == nil || item.Price.IsNegative() {
			return nil, model.NewFieldError(fmt.Sprintf("items[%d].price", i), "is required")
		}
		lines = append(lines, model.PricedLine{Quantity: item.Quantity, UnitPrice: *item.Price})
	}
	return lines, nil
}
