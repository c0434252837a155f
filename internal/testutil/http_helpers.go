package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
)

// NewRequestWithURLParams creates a request whose chi route context carries
// params, so handlers can call chi.URLParam without going through the router.
//
//	req := testutil.NewRequestWithURLParams(
//	    http.MethodGet,
//	    "/api/symbol/AAPL/history?period=1mo",
//	    map[string]string{"ticker": "AAPL"},
//	)
func NewRequestWithURLParams(method, target string, params map[string]string) *http.Request {
	return WithURLParams(httptest.NewRequest(method, target, nil), params)
}

// NewTickerRequest creates a request for a /{ticker} route.
//
//	req := testutil.NewTickerRequest(http.MethodDelete, "/api/portfolio/holdings/MSFT?portfolio=v1_MSFT~2~2", "MSFT")
func NewTickerRequest(method, target, ticker string) *http.Request {
	return NewRequestWithURLParams(method, target, map[string]string{"ticker": ticker})
}

// WithURLParams returns req with a chi route context holding params.
// An empty map leaves the request unchanged.
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return req
	}
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// NewRequestWithQueryParams creates a request with the given query string
// values, encoded the way a browser would send a share link.
//
//	req := testutil.NewRequestWithQueryParams(
//	    http.MethodGet,
//	    "/api/portfolio",
//	    map[string]string{"portfolio": "v1_AAPL~10~100"},
//	)
func NewRequestWithQueryParams(method, target string, queryParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if len(queryParams) == 0 {
		return req
	}

	q := req.URL.Query()
	for key, value := range queryParams {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()
	return req
}
