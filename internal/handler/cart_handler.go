package handler

import (
	"net/http"

	"travel-checkout/internal/model"
	"travel-checkout/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CartHandler handles cart and coupon wallet requests.
type CartHandler struct {
	carts    service.CartService
	coupons  service.CouponService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts service.CartService, coupons service.CouponService, validate *validator.Validate, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		coupons:  coupons,
		validate: validate,
		logger:   logger.With().Str("handler", "cart").Logger(),
	}
}

// List handles GET /api/cart requests.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	items, err := h.carts.ListCart(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// Add handles POST /api/cart requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.AddCartItemRequest
	if !bindJSON(w, r, &req, h.validate, h.logger) {
		return
	}

	entry, err := h.carts.AddToCart(r.Context(), userID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Update handles PUT /api/cart/{id} requests.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	cartItemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.UpdateCartItemRequest
	if !bindJSON(w, r, &req, h.validate, h.logger) {
		return
	}

	entry, err := h.carts.UpdateCartQuantity(r.Context(), userID, cartItemID, req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Remove handles DELETE /api/cart/{id} requests.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	cartItemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.carts.RemoveFromCart(r.Context(), userID, cartItemID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Coupons handles GET /api/coupons requests. The optional status query
// parameter filters by 0 (unused), 1 (used) or 2 (expired).
func (h *CartHandler) Coupons(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var status *model.UserCouponStatus
	if r.URL.Query().Has("status") {
		v, err := queryInt(r, "status", 0)
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		s := model.UserCouponStatus(v)
		status = &s
	}

	coupons, err := h.coupons.ListUserCoupons(r.Context(), userID, status)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}
