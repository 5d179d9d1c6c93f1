package router

import (
	"net/http"

	"travel-checkout/internal/handler"
	"travel-checkout/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Orders  *handler.OrderHandler
	Cart    *handler.CartHandler
	Catalog *handler.CatalogHandler
}

// Options configures authentication and rate limiting.
type Options struct {
	APIKey            string
	RequestsPerSecond float64
	Burst             int
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	})

	user := middleware.RequireUser(logger)
	withUser := func(fn http.HandlerFunc) http.Handler {
		return user(fn)
	}

	mux.Handle("POST /api/orders", withUser(h.Orders.Create))
	mux.Handle("GET /api/orders", withUser(h.Orders.List))
	mux.Handle("GET /api/orders/statistics", withUser(h.Orders.Statistics))
	mux.Handle("GET /api/orders/{id}", withUser(h.Orders.GetByID))
	mux.Handle("POST /api/orders/{id}/cancel", withUser(h.Orders.Cancel))
	mux.Handle("POST /api/orders/{id}/refund", withUser(h.Orders.Refund))

	// Called by the payment provider, not on behalf of a user.
	mux.HandleFunc("POST /api/payments/confirm", h.Orders.ConfirmPayment)

	mux.Handle("GET /api/cart", withUser(h.Cart.List))
	mux.Handle("POST /api/cart", withUser(h.Cart.Add))
	mux.Handle("PUT /api/cart/{id}", withUser(h.Cart.Update))
	mux.Handle("DELETE /api/cart/{id}", withUser(h.Cart.Remove))
	mux.Handle("GET /api/coupons", withUser(h.Cart.Coupons))

	mux.HandleFunc("GET /api/products", h.Catalog.ListProducts)
	mux.HandleFunc("GET /api/catalog/{type}/{id}", h.Catalog.GetItem)

	// Apply middleware in order: Recovery -> Logging -> Correlation -> CORS -> RateLimit -> APIKeyAuth
	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(opts.APIKey, logger)(handler)
	handler = middleware.RateLimit(opts.RequestsPerSecond, opts.Burst, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Correlation(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
