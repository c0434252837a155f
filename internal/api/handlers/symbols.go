package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

// SymbolHandler handles ticker search and market data lookups
type SymbolHandler struct {
	marketService *service.MarketService
}

// NewSymbolHandler creates a new SymbolHandler
func NewSymbolHandler(marketService *service.MarketService) *SymbolHandler {
	return &SymbolHandler{
		marketService: marketService,
	}
}

// Search returns ticker suggestions for a free-text query.
//
// Endpoint: GET /api/symbol/search?q={query}
// Response: 200 OK with []model.SymbolSuggestion (at most 8)
// Error: 400 Bad Request if the query is shorter than 3 characters
func (h *SymbolHandler) Search(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.marketService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToSearchSymbols, err)
		return
	}
	respondJSON(w, http.StatusOK, suggestions)
}

// History returns the daily close series of a ticker.
//
// Endpoint: GET /api/symbol/{ticker}/history?period={1mo|3mo|6mo|1y}
// Response: 200 OK with model.PriceHistory
// Error: 400 Bad Request for an unknown period, 404 if the symbol does not exist
func (h *SymbolHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.marketService.History(r.Context(), chi.URLParam(r, "ticker"), r.URL.Query().Get("period"))
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToRetrieveHistory, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// Price returns the close price of a ticker on a date, falling back to the
// last trading day before it.
//
// Endpoint: GET /api/symbol/{ticker}/price?date={YYYY-MM-DD}
// Response: 200 OK with model.HistoricalPrice
// Error: 400 Bad Request for a missing or invalid date, 404 if no price exists
func (h *SymbolHandler) Price(w http.ResponseWriter, r *http.Request) {
	date, err := validation.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToRetrievePrice,
			&validation.Error{Fields: map[string]string{"date": err.Error()}})
		return
	}

	price, err := h.marketService.PriceOn(r.Context(), chi.URLParam(r, "ticker"), date)
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToRetrievePrice, err)
		return
	}
	respondJSON(w, http.StatusOK, price)
}
