package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/codec"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/renderer"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

// DashboardHandler serves the HTML dashboard and its form actions.
// Successful form posts redirect (303) to the link of the new portfolio so the
// browser URL always holds the current state; failed posts re-render the
// unchanged portfolio with the error.
type DashboardHandler struct {
	portfolioService *service.PortfolioService
	renderer         *renderer.Renderer
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(portfolioService *service.PortfolioService, renderer *renderer.Renderer) *DashboardHandler {
	return &DashboardHandler{
		portfolioService: portfolioService,
		renderer:         renderer,
	}
}

// Index renders the dashboard for the portfolio in the query string.
//
// Endpoint: GET /?portfolio={code}
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, r.URL.Query().Get(portfolioParam), http.StatusOK, nil)
}

// AddHolding handles the add holding form.
//
// Endpoint: POST /holdings
func (h *DashboardHandler) AddHolding(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	current := r.PostForm.Get(portfolioParam)

	req, err := addRequestFromForm(r.PostForm)
	if err == nil {
		var code string
		code, err = h.portfolioService.AddHolding(r.Context(), current, req)
		if err == nil {
			redirectToPortfolio(w, r, code)
			return
		}
	}
	h.renderFailure(w, r, current, err)
}

// RemoveHolding handles the delete holding form.
//
// Endpoint: POST /holdings/delete
func (h *DashboardHandler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	current := r.PostForm.Get(portfolioParam)

	code, _, err := h.portfolioService.RemoveHolding(current, r.PostForm.Get("ticker"))
	if err != nil {
		h.renderFailure(w, r, current, err)
		return
	}
	redirectToPortfolio(w, r, code)
}

// ClearHoldings handles the clear portfolio form.
//
// Endpoint: POST /holdings/clear
func (h *DashboardHandler) ClearHoldings(w http.ResponseWriter, r *http.Request) {
	redirectToPortfolio(w, r, h.portfolioService.ClearHoldings())
}

func (h *DashboardHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return false
	}
	return true
}

// renderFailure re-renders the unchanged portfolio with the error of a form action.
func (h *DashboardHandler) renderFailure(w http.ResponseWriter, r *http.Request, current string, err error) {
	status, _ := errorStatus(err)

	failure := &renderer.Page{Error: apperrors.ErrFailedToUpdatePortfolio.Error()}
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		failure.Fields = vErr.Fields
	} else {
		failure.Error += ": " + err.Error()
	}
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Dashboard action failed")
	}

	h.renderPage(w, r, current, status, failure)
}

// renderPage renders the dashboard for code. failure, when set, carries the
// error of a rejected action. A code that cannot be decoded renders an empty
// dashboard explaining that the link is broken.
func (h *DashboardHandler) renderPage(w http.ResponseWriter, r *http.Request, code string, status int, failure *renderer.Page) {
	var page renderer.Page
	if failure != nil {
		page = *failure
	}

	dashboard, err := h.portfolioService.Render(r.Context(), code)
	switch {
	case err == nil:
		page.Report = dashboard.Report
		page.Code = dashboard.Code
	default:
		var dErr *codec.DecodeError
		if errors.As(err, &dErr) {
			status = http.StatusBadRequest
			page.Error = "This portfolio link is invalid and could not be loaded."
			page.Fields = map[string]string{portfolioParam: dErr.Error()}
		} else {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render dashboard")
			status = http.StatusInternalServerError
			page.Error = apperrors.ErrFailedToRenderPortfolio.Error()
		}
	}

	var buf bytes.Buffer
	if err := h.renderer.Dashboard(&buf, page); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write dashboard")
		http.Error(w, apperrors.ErrFailedToRenderPortfolio.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// addRequestFromForm converts the add holding form into a request.
// Numbers that do not parse are reported per field.
func addRequestFromForm(form url.Values) (request.AddHoldingRequest, error) {
	req := request.AddHoldingRequest{
		Ticker:     form.Get("ticker"),
		AcquiredOn: strings.TrimSpace(form.Get("acquiredOn")),
	}
	fields := map[string]string{}

	if raw := strings.TrimSpace(form.Get("quantity")); raw != "" {
		q, err := decimal.NewFromString(raw)
		if err != nil {
			fields["quantity"] = "quantity must be a number"
		}
		req.Quantity = q
	}

	if raw := strings.TrimSpace(form.Get("costBasis")); raw != "" {
		c, err := decimal.NewFromString(raw)
		if err != nil {
			fields["costBasis"] = "cost basis must be a number"
		}
		req.CostBasis = &c
	}

	if len(fields) > 0 {
		return req, &validation.Error{Fields: fields}
	}
	return req, nil
}

func redirectToPortfolio(w http.ResponseWriter, r *http.Request, code string) {
	target := "/"
	if code != "" {
		target = "/?" + portfolioParam + "=" + url.QueryEscape(code)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
