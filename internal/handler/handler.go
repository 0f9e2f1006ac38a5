package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// errorStatuses maps domain errors to HTTP status codes. The first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{model.ErrEmptyCart, http.StatusBadRequest},
	{model.ErrInvalidQuantity, http.StatusBadRequest},
	{model.ErrInvalidPaymentMethod, http.StatusBadRequest},
	{model.ErrProductNotFound, http.StatusBadRequest},
	{model.ErrInvalidPromoCode, http.StatusBadRequest},
	{model.ErrPromoExpired, http.StatusBadRequest},
	{model.ErrPromoBelowMinimum, http.StatusBadRequest},
	{model.ErrInvalidStatus, http.StatusBadRequest},
	{model.ErrPromoUsageExhausted, http.StatusConflict},
	{model.ErrPaymentNotRequired, http.StatusConflict},
	{model.ErrIllegalTransition, http.StatusConflict},
	{model.ErrStatusConflict, http.StatusConflict},
	{model.ErrTrackingNumberInUse, http.StatusConflict},
	{model.ErrOrderNotFound, http.StatusNotFound},
	{model.ErrUnauthorised, http.StatusUnauthorized},
	{model.ErrForbidden, http.StatusForbidden},
	{model.ErrPaymentUnavailable, http.StatusBadGateway},
	{model.ErrPaymentConfigMissing, http.StatusServiceUnavailable},
}

// writeServiceError translates a service error into a response. Errors
// outside the domain taxonomy become a bare 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var fieldErr *model.FieldError
	if errors.As(err, &fieldErr) {
		logger.Debug().Str("field", fieldErr.Field).Msg("request field rejected")
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error: fieldErr.Error(),
			Code:  model.ErrCodeMissingField,
			Field: fieldErr.Field,
		})
		return
	}

	for _, m := range errorStatuses {
		if !errors.Is(err, m.err) {
			continue
		}
		var domainErr *model.DomainError
		errors.As(err, &domainErr)
		message := err.Error()
		if m.status >= http.StatusInternalServerError {
			message = domainErr.Message
		}
		writeError(w, m.status, domainErr.Code, message, logger)
		return
	}

	logger.Error().Err(err).Msg("unhandled service error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error: "internal server error",
		Code:  model.ErrCodeInternalError,
	})
}
