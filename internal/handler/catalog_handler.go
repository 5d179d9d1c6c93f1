package handler

import (
	"net/http"
	"strings"

	"travel-checkout/internal/model"
	"travel-checkout/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler handles catalog read requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// ListProducts handles GET /api/products requests with pagination.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	products, err := h.service.ListProducts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetItem handles GET /api/catalog/{type}/{id} requests. The type segment
// is case-insensitive, e.g. "hotel_room".
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemType := model.ItemType(strings.ToUpper(r.PathValue("type")))
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	item, err := h.service.GetItem(r.Context(), itemType, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, item)
}
