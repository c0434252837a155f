package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/middleware"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/response"
)

func requestWithTicker(ticker string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("ticker", ticker)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestValidateTickerMiddleware(t *testing.T) {
	t.Run("passes through valid tickers", func(t *testing.T) {
		for _, ticker := range []string{"AAPL", "brk-b", "RELIANCE.NS"} {
			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			middleware.ValidateTickerMiddleware(next).ServeHTTP(w, requestWithTicker(ticker))

			if !handlerCalled {
				t.Errorf("Expected next handler to be called for %q", ticker)
			}
			if w.Code != http.StatusOK {
				t.Errorf("Expected 200 for %q, got %d", ticker, w.Code)
			}
		}
	})

	t.Run("returns 400 for invalid ticker", func(t *testing.T) {
		handlerCalled := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			handlerCalled = true
		})

		w := httptest.NewRecorder()
		middleware.ValidateTickerMiddleware(next).ServeHTTP(w, requestWithTicker("^GSPC"))

		if handlerCalled {
			t.Error("Expected next handler NOT to be called")
		}
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}

		var resp response.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Error != "invalid ticker" {
			t.Errorf("Expected error 'invalid ticker', got '%s'", resp.Error)
		}
		details, ok := resp.Details.(map[string]any)
		if !ok || details["ticker"] == nil {
			t.Errorf("Expected details to name the ticker field, got %v", resp.Details)
		}
	})

	t.Run("returns 400 for empty ticker", func(t *testing.T) {
		handlerCalled := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			handlerCalled = true
		})

		w := httptest.NewRecorder()
		middleware.ValidateTickerMiddleware(next).ServeHTTP(w, requestWithTicker("  "))

		if handlerCalled {
			t.Error("Expected next handler NOT to be called")
		}
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
