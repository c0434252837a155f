package apperrors

import "errors"

// Portfolio representation errors.
var (
	// ErrMalformedPortfolio indicates that a shareable portfolio string could not be decoded.
	// Every codec.DecodeError unwraps to this error.
	ErrMalformedPortfolio = errors.New("malformed portfolio")

	// ErrPortfolioFull indicates that a holding could not be added because the
	// portfolio already holds the maximum number of tickers.
	ErrPortfolioFull = errors.New("portfolio is full")
)

// Market data errors represent failures of the external price oracle.
// They are reported per ticker and never abort a whole valuation.
var (
	// ErrSymbolNotFound indicates that a symbol lookup returned no results.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrRateLimited indicates that the market data provider throttled the request.
	ErrRateLimited = errors.New("market data rate limited")

	// ErrPriceUnavailable indicates that a price could not be retrieved
	// (network failure, timeout, upstream error or an empty response).
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrNoPriceForDate indicates that no close price exists on or shortly before a date.
	ErrNoPriceForDate = errors.New("no price for date")
)

// Operation failure errors used as user-facing messages by the HTTP layer.
var (
	ErrFailedToRenderPortfolio = errors.New("failed to render portfolio")
	ErrFailedToUpdatePortfolio = errors.New("failed to update portfolio")
	ErrFailedToSearchSymbols   = errors.New("failed to search symbols")
	ErrFailedToRetrieveHistory = errors.New("failed to retrieve price history")
	ErrFailedToRetrievePrice   = errors.New("failed to retrieve price")
)
