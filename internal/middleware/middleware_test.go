package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travel-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectHandler  bool
	}{
		{name: "Preflight request", method: http.MethodOptions, expectedStatus: http.StatusNoContent},
		{name: "GET request", method: http.MethodGet, expectedStatus: http.StatusOK, expectHandler: true},
		{name: "POST request", method: http.MethodPost, expectedStatus: http.StatusOK, expectHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := CORS(okHandler(&handlerCalled))

			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	logger := zerolog.Nop()
	validAPIKey := "test-api-key-123"

	tests := []struct {
		name           string
		path           string
		apiKey         string
		expectedStatus int
		expectHandler  bool
	}{
		{name: "Valid API key", path: "/api/orders", apiKey: validAPIKey, expectedStatus: http.StatusOK, expectHandler: true},
		{name: "Invalid API key", path: "/api/orders", apiKey: "invalid-key", expectedStatus: http.StatusUnauthorized},
		{name: "Missing API key", path: "/api/orders", expectedStatus: http.StatusUnauthorized},
		{name: "Health check bypasses auth", path: "/health", expectedStatus: http.StatusOK, expectHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := APIKeyAuth(validAPIKey, logger)(okHandler(&handlerCalled))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set(HeaderAPIKey, tt.apiKey)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			if !tt.expectHandler {
				var resp model.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, model.ErrCodeUnauthorised, resp.Error)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		expectHandler bool
		expectedID    int64
	}{
		{name: "valid id", header: "42", expectHandler: true, expectedID: 42},
		{name: "missing", header: ""},
		{name: "not a number", header: "abc"},
		{name: "zero", header: "0"},
		{name: "negative", header: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			var gotOK bool
			handler := RequireUser(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, gotOK = UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set(HeaderUserID, tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if tt.expectHandler {
				assert.Equal(t, http.StatusOK, w.Code)
				assert.True(t, gotOK)
				assert.Equal(t, tt.expectedID, gotID)
				return
			}
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, gotOK)
		})
	}
}

func TestCorrelation(t *testing.T) {
	var seen string
	handler := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Len(t, seen, 36)
		assert.Equal(t, seen, w.Header().Get(HeaderCorrelationID))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderCorrelationID, "trace-abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "trace-abc", seen)
		assert.Equal(t, "trace-abc", w.Header().Get(HeaderCorrelationID))
	})
}

func TestRateLimit(t *testing.T) {
	calls := 0
	handler := RateLimit(0.001, 2, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
		codes[i] = w.Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, calls)
}

func TestLogging(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
	}{
		{name: "Successful request", method: http.MethodGet, path: "/api/products", handlerStatus: http.StatusOK},
		{name: "Not found request", method: http.MethodGet, path: "/api/unknown", handlerStatus: http.StatusNotFound},
		{name: "Server error", method: http.MethodPost, path: "/api/orders", handlerStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			handler := Logging(logger)(testHandler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.handlerStatus, w.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		shouldPanic    bool
		panicValue     interface{}
		expectedStatus int
	}{
		{name: "No panic", expectedStatus: http.StatusOK},
		{name: "Panic with string", shouldPanic: true, panicValue: "something went wrong", expectedStatus: http.StatusInternalServerError},
		{name: "Panic with error", shouldPanic: true, panicValue: assert.AnError, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.shouldPanic {
					panic(tt.panicValue)
				}
				w.WriteHeader(http.StatusOK)
			})

			handler := Recovery(logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.shouldPanic {
				assert.Contains(t, w.Body.String(), "internal server error")
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusNotFound, http.StatusInternalServerError} {
		w := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		rw.WriteHeader(code)

		assert.Equal(t, code, rw.statusCode)
		assert.Equal(t, code, w.Code)
	}
}
