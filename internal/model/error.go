package model

import (
	"fmt"
	"strconv"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Subject       string `json:"subject,omitempty"`
	Retryable     bool   `json:"retryable,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Error codes surfaced to callers. Each one maps to exactly one failure kind.
const (
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeItemNotFound           = "ITEM_NOT_FOUND"
	ErrCodeItemUnavailable        = "ITEM_UNAVAILABLE"
	ErrCodeInsufficientStock      = "INSUFFICIENT_STOCK"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeCartItemNotFound       = "CART_ITEM_NOT_FOUND"
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeCouponNotFound         = "COUPON_NOT_FOUND"
	ErrCodeCouponAlreadyUsed      = "COUPON_ALREADY_USED"
	ErrCodeCouponDisabled         = "COUPON_DISABLED"
	ErrCodeCouponNotYetValid      = "COUPON_NOT_YET_VALID"
	ErrCodeCouponExpired          = "COUPON_EXPIRED"
	ErrCodeCouponThresholdNotMet  = "COUPON_THRESHOLD_NOT_MET"
	ErrCodeCouponScopeMismatch    = "COUPON_SCOPE_MISMATCH"
	ErrCodeCouponNotEligible      = "COUPON_NOT_ELIGIBLE"
	ErrCodePersistenceFailure     = "PERSISTENCE_FAILURE"

	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodeUnauthorised  = "UNAUTHORIZED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// DomainError is a named business failure. Subject identifies the item,
// coupon or order that caused it, e.g. "PRODUCT:42".
type DomainError struct {
	Code      string
	Message   string
	Subject   string
	Retryable bool
	Err       error
}

func (e *DomainError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Subject)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so callers can use
// errors.Is(err, model.ErrInsufficientStock) regardless of subject.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// With returns a copy of the error naming the offending subject.
func (e *DomainError) With(subject string) *DomainError {
	cp := *e
	cp.Subject = subject
	return &cp
}

// Withf returns a copy of the error with a more specific message.
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of the error carrying the underlying cause.
func (e *DomainError) Wrap(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

// Common domain errors
var (
	ErrInvalidRequest         = NewDomainError(ErrCodeInvalidRequest, "Invalid request")
	ErrItemNotFound           = NewDomainError(ErrCodeItemNotFound, "Item not found")
	ErrItemUnavailable        = NewDomainError(ErrCodeItemUnavailable, "Item is not available for sale")
	ErrInsufficientStock      = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrForbidden              = NewDomainError(ErrCodeForbidden, "Resource belongs to another user")
	ErrOrderNotFound          = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrCartItemNotFound       = NewDomainError(ErrCodeCartItemNotFound, "Cart entry not found")
	ErrInvalidStateTransition = NewDomainError(ErrCodeInvalidStateTransition, "Order status does not allow this operation")
	ErrCouponNotFound         = NewDomainError(ErrCodeCouponNotFound, "Coupon not found")
	ErrCouponAlreadyUsed      = NewDomainError(ErrCodeCouponAlreadyUsed, "Coupon has already been used")
	ErrCouponDisabled         = NewDomainError(ErrCodeCouponDisabled, "Coupon is disabled")
	ErrCouponNotYetValid      = NewDomainError(ErrCodeCouponNotYetValid, "Coupon is not valid yet")
	ErrCouponExpired          = NewDomainError(ErrCodeCouponExpired, "Coupon has expired")
	ErrCouponThresholdNotMet  = NewDomainError(ErrCodeCouponThresholdNotMet, "Order amount does not reach the coupon threshold")
	ErrCouponScopeMismatch    = NewDomainError(ErrCodeCouponScopeMismatch, "No order item falls within the coupon scope")
	ErrCouponNotEligible      = NewDomainError(ErrCodeCouponNotEligible, "Coupon is only available for a first order")
	ErrPersistenceFailure     = NewDomainError(ErrCodePersistenceFailure, "Order could not be persisted")
)

// ItemSubject formats the subject for a catalog item.
func ItemSubject(t ItemType, id int64) string {
	return string(t) + ":" + strconv.FormatInt(id, 10)
}

// CouponSubject formats the subject for an issued coupon.
func CouponSubject(userCouponID int64) string {
	return "COUPON:" + strconv.FormatInt(userCouponID, 10)
}

// CartSubject formats the subject for a cart entry.
func CartSubject(cartItemID int64) string {
	return "CART:" + strconv.FormatInt(cartItemID, 10)
}

// OrderSubject formats the subject for an order.
func OrderSubject(orderID int64) string {
	return "ORDER:" + strconv.FormatInt(orderID, 10)
}
