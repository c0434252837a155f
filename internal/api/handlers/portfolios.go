package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/response"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/renderer"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
)

// PortfolioHandler handles the JSON portfolio API. The portfolio itself
// travels in the "portfolio" query parameter; mutations answer with the new code.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	renderer         *renderer.Renderer
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, renderer *renderer.Renderer) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		renderer:         renderer,
	}
}

// PortfolioResponse is the refreshed valuation of a portfolio.
type PortfolioResponse struct {
	Code     string                `json:"code"`
	ShareURL string                `json:"shareUrl"`
	Report   model.ValuationReport `json:"report"`
}

// ShareResponse carries a canonical share code and its link.
type ShareResponse struct {
	Code     string `json:"code"`
	ShareURL string `json:"shareUrl"`
}

// RemoveResponse is the result of deleting a holding.
type RemoveResponse struct {
	ShareResponse
	Removed bool `json:"removed"`
}

func (h *PortfolioHandler) share(code string) ShareResponse {
	return ShareResponse{Code: code, ShareURL: h.renderer.ShareURL(code)}
}

// Refresh values the portfolio at current prices.
//
// Endpoint: GET /api/portfolio?portfolio={code}
// Response: 200 OK with PortfolioResponse
// Error: 400 Bad Request if the code cannot be decoded
func (h *PortfolioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.portfolioService.Render(r.Context(), r.URL.Query().Get(portfolioParam))
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToRenderPortfolio, err)
		return
	}

	respondJSON(w, http.StatusOK, PortfolioResponse{
		Code:     dashboard.Code,
		ShareURL: h.renderer.ShareURL(dashboard.Code),
		Report:   dashboard.Report,
	})
}

// Share returns the canonical share code and link of a portfolio.
//
// Endpoint: GET /api/portfolio/share?portfolio={code}
// Response: 200 OK with ShareResponse
// Error: 400 Bad Request if the code cannot be decoded
func (h *PortfolioHandler) Share(w http.ResponseWriter, r *http.Request) {
	code, err := h.portfolioService.Share(r.URL.Query().Get(portfolioParam))
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToRenderPortfolio, err)
		return
	}
	respondJSON(w, http.StatusOK, h.share(code))
}

// Report renders the valuation as a markdown document.
//
// Endpoint: GET /api/portfolio/report?portfolio={code}
// Response: 200 OK with text/markdown
// Error: 400 Bad Request if the code cannot be decoded
func (h *PortfolioHandler) Report(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.portfolioService.Render(r.Context(), r.URL.Query().Get(portfolioParam))
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToRenderPortfolio, err)
		return
	}

	md, err := h.renderer.Markdown(dashboard.Report)
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToRenderPortfolio, err)
		return
	}
	response.RespondMarkdown(w, http.StatusOK, md)
}

// AddHolding adds a holding, merging it into an existing one for the same ticker.
//
// Endpoint: POST /api/portfolio/holdings?portfolio={code}
// Request: AddHoldingRequest
// Response: 201 Created with ShareResponse
// Error: 400 Bad Request for invalid input, 404/429/503 when the cost basis lookup fails
func (h *PortfolioHandler) AddHolding(w http.ResponseWriter, r *http.Request) {
	var req request.AddHoldingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	code, err := h.portfolioService.AddHolding(r.Context(), r.URL.Query().Get(portfolioParam), req)
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToUpdatePortfolio, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.share(code))
}

// RemoveHolding deletes the holding for a ticker. Deleting an absent ticker is not an error.
//
// Endpoint: DELETE /api/portfolio/holdings/{ticker}?portfolio={code}
// Response: 200 OK with RemoveResponse
// Error: 400 Bad Request if the code cannot be decoded
func (h *PortfolioHandler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	code, removed, err := h.portfolioService.RemoveHolding(r.URL.Query().Get(portfolioParam), chi.URLParam(r, "ticker"))
	if err != nil {
		respondServiceError(w, r, apperrors.ErrFailedToUpdatePortfolio, err)
		return
	}
	respondJSON(w, http.StatusOK, RemoveResponse{ShareResponse: h.share(code), Removed: removed})
}

// ClearHoldings returns the code of an empty portfolio.
//
// Endpoint: DELETE /api/portfolio/holdings
// Response: 200 OK with ShareResponse
func (h *PortfolioHandler) ClearHoldings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.share(h.portfolioService.ClearHoldings()))
}
