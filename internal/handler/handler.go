package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"travel-checkout/internal/middleware"
	"travel-checkout/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// NewValidator returns the request validator shared by the handlers.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(createOrderStructValidation, model.CreateOrderRequest{})
	return v
}

// createOrderStructValidation requires exactly one of cartIds and items.
func createOrderStructValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(model.CreateOrderRequest)

	hasCart := len(req.CartIDs) > 0
	hasItems := len(req.Items) > 0
	if hasCart == hasItems {
		sl.ReportError(req.CartIDs, "cartIds", "CartIDs", "cart_or_items", "")
	}
}

// statusFor maps a domain error code to its HTTP status.
func statusFor(e *model.DomainError) int {
	switch e.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeItemNotFound, model.ErrCodeOrderNotFound, model.ErrCodeCouponNotFound,
		model.ErrCodeCartItemNotFound:
		return http.StatusNotFound
	case model.ErrCodeItemUnavailable, model.ErrCodeInsufficientStock,
		model.ErrCodeInvalidStateTransition, model.ErrCodeCouponAlreadyUsed:
		return http.StatusConflict
	case model.ErrCodeCouponDisabled, model.ErrCodeCouponNotYetValid, model.ErrCodeCouponExpired,
		model.ErrCodeCouponThresholdNotMet, model.ErrCodeCouponScopeMismatch, model.ErrCodeCouponNotEligible:
		return http.StatusUnprocessableEntity
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case model.ErrCodePersistenceFailure:
		if e.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure cannot be reported.
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a domain error response. Errors that carry no domain
// code are reported as internal errors without exposing their text.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	resp := model.ErrorResponse{CorrelationID: middleware.CorrelationID(r.Context())}
	status := http.StatusInternalServerError

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status = statusFor(domainErr)
		resp.Error = domainErr.Code
		resp.Message = domainErr.Message
		resp.Subject = domainErr.Subject
		resp.Retryable = domainErr.Retryable
	} else {
		resp.Error = model.ErrCodeInternalError
		resp.Message = "internal server error"
	}

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error().Err(err)
	}
	event.
		Str("code", resp.Error).
		Str("subject", resp.Subject).
		Int("status", status).
		Str("correlation_id", resp.CorrelationID).
		Msg("handler error")

	writeJSON(w, status, resp)
}

// bindJSON decodes the request body into out and validates it. On failure
// the error response has already been written and false is returned.
func bindJSON(w http.ResponseWriter, r *http.Request, out interface{}, v *validator.Validate, logger zerolog.Logger) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	// An empty body decodes to the zero value and is left to validation.
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body"), logger)
		return false
	}

	if err := v.Struct(out); err != nil {
		writeError(w, r, model.ErrInvalidRequest.Withf("%s", validationMessage(err)), logger)
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Tag() == "cart_or_items" {
			parts = append(parts, "exactly one of cartIds and items is required")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// pathID parses a positive int64 path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrInvalidRequest.Withf("%s must be a positive integer", name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.ErrInvalidRequest.Withf("invalid %s parameter", name)
	}
	return v, nil
}

// currentUser returns the caller's id stored by middleware.RequireUser.
func currentUser(r *http.Request) (int64, error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		return 0, model.NewDomainError(model.ErrCodeUnauthorised, "user id is required")
	}
	return userID, nil
}
