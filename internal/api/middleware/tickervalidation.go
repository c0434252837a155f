// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

// ValidateTickerMiddleware validates that the ticker URL parameter is present and
// is a valid ticker symbol once normalized (trimmed, upper-cased).
// Returns 400 Bad Request if the ticker is missing or invalid.
//
// Example usage in router:
//
//	r.Route("/{ticker}", func(r chi.Router) {
//	    r.Use(middleware.ValidateTickerMiddleware)
//	    r.Get("/history", handler.History)
//	})
func ValidateTickerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := validation.NormalizeTicker(chi.URLParam(r, "ticker"))

		if ticker == "" {
			response.RespondError(w, http.StatusBadRequest, "ticker is required", nil)
			return
		}

		if err := validation.ValidateTicker(ticker); err != nil {
			var details any = err.Error()
			var vErr *validation.Error
			if errors.As(err, &vErr) {
				details = vErr.Fields
			}
			response.RespondError(w, http.StatusBadRequest, "invalid ticker", details)
			return
		}

		next.ServeHTTP(w, r)
	})
}
