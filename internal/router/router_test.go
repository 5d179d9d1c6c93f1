package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"travel-checkout/internal/handler"
	"travel-checkout/internal/middleware"
	"travel-checkout/internal/model"
	"travel-checkout/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

const testAPIKey = "test-key"

// stubOrders answers the order routes; unused methods panic via the nil
// embedded interface.
type stubOrders struct {
	service.OrderService
	lastUser int64
}

func (s *stubOrders) GetOrderStatistics(ctx context.Context, userID int64) (*model.OrderStatistics, error) {
	s.lastUser = userID
	return &model.OrderStatistics{}, nil
}

func (s *stubOrders) GetOrderDetail(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	s.lastUser = userID
	return &model.Order{ID: orderID, UserID: userID}, nil
}

func (s *stubOrders) CancelOrder(ctx context.Context, orderID, userID int64) error {
	return model.ErrInvalidStateTransition.With(model.OrderSubject(orderID))
}

func (s *stubOrders) ConfirmPayment(ctx context.Context, confirmation model.PaymentConfirmation) error {
	return nil
}

type stubCatalog struct {
	service.CatalogService
}

func (stubCatalog) GetItem(ctx context.Context, itemType model.ItemType, id int64) (*model.CatalogItem, error) {
	return &model.CatalogItem{Type: itemType, ID: id}, nil
}

func (stubCatalog) ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error) {
	return []model.Product{}, nil
}

type stubCart struct {
	service.CartService
}

func (stubCart) ListCart(ctx context.Context, userID int64) ([]model.CartItem, error) {
	return []model.CartItem{}, nil
}

func (stubCart) UpdateCartQuantity(ctx context.Context, userID, cartItemID int64, quantity int) (*model.CartItem, error) {
	return &model.CartItem{ID: cartItemID, UserID: userID, Quantity: quantity}, nil
}

func newTestRouter(orders *stubOrders) http.Handler {
	logger := zerolog.Nop()
	v := handler.NewValidator()
	return New(Handlers{
		Orders:  handler.NewOrderHandler(orders, v, logger),
		Cart:    handler.NewCartHandler(stubCart{}, nil, v, logger),
		Catalog: handler.NewCatalogHandler(stubCatalog{}, logger),
	}, Options{APIKey: testAPIKey, RequestsPerSecond: 1000, Burst: 1000}, logger)
}

func TestRouter(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		apiKey         string
		userID         string
		body           string
		expectedStatus int
	}{
		{name: "health without key", method: http.MethodGet, path: "/health", expectedStatus: http.StatusOK},
		{name: "missing key", method: http.MethodGet, path: "/api/products", expectedStatus: http.StatusUnauthorized},
		{name: "products", method: http.MethodGet, path: "/api/products", apiKey: testAPIKey, expectedStatus: http.StatusOK},
		{name: "catalog item", method: http.MethodGet, path: "/api/catalog/attraction/3", apiKey: testAPIKey, expectedStatus: http.StatusOK},
		{name: "orders need a user", method: http.MethodGet, path: "/api/orders/statistics", apiKey: testAPIKey, expectedStatus: http.StatusUnauthorized},
		{name: "statistics", method: http.MethodGet, path: "/api/orders/statistics", apiKey: testAPIKey, userID: "7", expectedStatus: http.StatusOK},
		{name: "order detail", method: http.MethodGet, path: "/api/orders/9", apiKey: testAPIKey, userID: "7", expectedStatus: http.StatusOK},
		{name: "cancel", method: http.MethodPost, path: "/api/orders/9/cancel", apiKey: testAPIKey, userID: "7", expectedStatus: http.StatusConflict},
		{name: "cart", method: http.MethodGet, path: "/api/cart", apiKey: testAPIKey, userID: "7", expectedStatus: http.StatusOK},
		{name: "cart quantity", method: http.MethodPut, path: "/api/cart/5", apiKey: testAPIKey, userID: "7", body: `{"quantity":2}`, expectedStatus: http.StatusOK},
		{name: "cart quantity without user", method: http.MethodPut, path: "/api/cart/5", apiKey: testAPIKey, body: `{"quantity":2}`, expectedStatus: http.StatusUnauthorized},
		{
			name:           "payment confirm without user",
			method:         http.MethodPost,
			path:           "/api/payments/confirm",
			apiKey:         testAPIKey,
			body:           `{"orderNo":"ORD1","payType":"ALIPAY","payNo":"2026"}`,
			expectedStatus: http.StatusNoContent,
		},
		{name: "wrong method", method: http.MethodPut, path: "/api/orders/9", apiKey: testAPIKey, userID: "7", expectedStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/unknown", apiKey: testAPIKey, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &stubOrders{}
			router := newTestRouter(orders)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.apiKey != "" {
				req.Header.Set(middleware.HeaderAPIKey, tt.apiKey)
			}
			if tt.userID != "" {
				req.Header.Set(middleware.HeaderUserID, tt.userID)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.HeaderCorrelationID))
			if tt.userID == "7" && w.Code == http.StatusOK && !strings.HasPrefix(tt.path, "/api/cart") {
				assert.Equal(t, int64(7), orders.lastUser)
			}
		})
	}
}
