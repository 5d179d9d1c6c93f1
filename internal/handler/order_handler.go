package handler

import (
	"net/http"

	"travel-checkout/internal/model"
	"travel-checkout/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service  service.OrderService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, validate *validator.Validate, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.CreateOrderRequest
	if !bindJSON(w, r, &req, h.validate, h.logger) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	query := model.OrderListQuery{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.OrderStatus(raw)
		query.Status = &status
	}
	if query.Page, err = queryInt(r, "page", 1); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if query.PageSize, err = queryInt(r, "pageSize", 0); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	page, err := h.service.ListUserOrders(r.Context(), userID, query)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Statistics handles GET /api/orders/statistics requests.
func (h *OrderHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	stats, err := h.service.GetOrderStatistics(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := h.orderTarget(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrderDetail(r.Context(), orderID, userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{id}/cancel requests.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := h.orderTarget(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelOrder(r.Context(), orderID, userID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Refund handles POST /api/orders/{id}/refund requests.
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	userID, orderID, ok := h.orderTarget(w, r)
	if !ok {
		return
	}

	var req model.RefundRequest
	if !bindJSON(w, r, &req, h.validate, h.logger) {
		return
	}

	if err := h.service.ApplyRefund(r.Context(), orderID, userID, req.Reason); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ConfirmPayment handles POST /api/payments/confirm requests sent by the
// payment provider.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentConfirmation
	if !bindJSON(w, r, &req, h.validate, h.logger) {
		return
	}

	if err := h.service.ConfirmPayment(r.Context(), req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) orderTarget(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return 0, 0, false
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return 0, 0, false
	}
	return userID, orderID, true
}
