package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeEmptyCart            = "EMPTY_CART"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeInvalidPromoCode     = "INVALID_PROMO_CODE"
	ErrCodePromoExpired         = "PROMO_EXPIRED"
	ErrCodePromoBelowMinimum    = "PROMO_BELOW_MINIMUM"
	ErrCodePromoUsageExhausted  = "PROMO_USAGE_EXHAUSTED"
	ErrCodePaymentUnavailable   = "PAYMENT_UNAVAILABLE"
	ErrCodePaymentConfigMissing = "PAYMENT_CONFIG_MISSING"
	ErrCodePaymentNotRequired   = "PAYMENT_NOT_REQUIRED"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeIllegalTransition    = "ILLEGAL_TRANSITION"
	ErrCodeStatusConflict       = "STATUS_CONFLICT"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeTrackingNumberInUse  = "TRACKING_NUMBER_IN_USE"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// FieldError reports a missing or invalid request field. It matches
// ErrMissingField under errors.Is.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Is reports whether target is ErrMissingField.
func (e *FieldError) Is(target error) bool {
	return target == ErrMissingField
}

// NewFieldError creates a field-level validation error.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// Common domain errors
var (
	ErrMissingField         = NewDomainError(ErrCodeMissingField, "A required field is missing")
	ErrEmptyCart            = NewDomainError(ErrCodeEmptyCart, "Cart must contain at least one item")
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidPaymentMethod = NewDomainError(ErrCodeInvalidPaymentMethod, "Unsupported payment method")
	ErrProductNotFound      = NewDomainError(ErrCodeProductNotFound, "One or more products not found")

	ErrInvalidPromoCode    = NewDomainError(ErrCodeInvalidPromoCode, "Promo code does not exist")
	ErrPromoExpired        = NewDomainError(ErrCodePromoExpired, "Promo code is not currently valid")
	ErrPromoBelowMinimum   = NewDomainError(ErrCodePromoBelowMinimum, "Order total is below the promo code minimum")
	ErrPromoUsageExhausted = NewDomainError(ErrCodePromoUsageExhausted, "Promo code usage limit reached")

	ErrPaymentUnavailable   = NewDomainError(ErrCodePaymentUnavailable, "Payment unavailable, try again")
	ErrPaymentConfigMissing = NewDomainError(ErrCodePaymentConfigMissing, "Payment provider is not configured")
	ErrPaymentNotRequired   = NewDomainError(ErrCodePaymentNotRequired, "Order does not require an online payment")

	ErrInvalidStatus       = NewDomainError(ErrCodeInvalidStatus, "Unknown order status")
	ErrIllegalTransition   = NewDomainError(ErrCodeIllegalTransition, "Order status transition is not allowed")
	ErrStatusConflict      = NewDomainError(ErrCodeStatusConflict, "Order status changed concurrently, reload and retry")
	ErrOrderNotFound       = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrTrackingNumberInUse = NewDomainError(ErrCodeTrackingNumberInUse, "Tracking number is already assigned to another order")
	ErrForbidden           = NewDomainError(ErrCodeForbidden, "Order is outside the caller's scope")
	ErrUnauthorised        = NewDomainError(ErrCodeUnauthorised, "Authentication required")
)

// IsPromotionError reports whether err is one of the promo code rejections.
func IsPromotionError(err error) bool {
	return errors.Is(err, ErrInvalidPromoCode) ||
		errors.Is(err, ErrPromoExpired) ||
		errors.Is(err, ErrPromoBelowMinimum) ||
		errors.Is(err, ErrPromoUsageExhausted)
}

// IsValidationError reports whether err was caused by caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, ErrProductNotFound)
}
