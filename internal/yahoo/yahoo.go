package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
)

const (
	DefaultChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"

	defaultMaxRetries  = 2
	defaultRetryBase   = 200 * time.Millisecond
	defaultHTTPTimeout = 10 * time.Second
	maxBodySize        = 4 << 20
)

// Client is the market data oracle used by the services.
// Every method honours ctx cancellation. Failures wrap one of
// apperrors.ErrSymbolNotFound, apperrors.ErrRateLimited or apperrors.ErrPriceUnavailable.
type Client interface {
	QuerySymbolByRange(ctx context.Context, symbol, rng string) (Response, error)
	QuerySymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error)
	Search(ctx context.Context, query string, limit int) ([]SearchQuote, error)
	ParseChart(yahooResult Response) (PriceChart, error)
}

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
// Transient failures (network errors and 5xx responses) are retried with
// exponential backoff; rate limiting and unknown symbols are not.
type FinanceClient struct {
	httpClient *http.Client
	chartURL   string
	searchURL  string
	maxRetries uint64
	retryBase  time.Duration
	log        zerolog.Logger
}

// Option configures a FinanceClient.
type Option func(*FinanceClient)

// WithChartURL overrides the chart endpoint, e.g. to point at a test server.
func WithChartURL(u string) Option {
	return func(c *FinanceClient) { c.chartURL = u }
}

// WithSearchURL overrides the search endpoint.
func WithSearchURL(u string) Option {
	return func(c *FinanceClient) { c.searchURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *FinanceClient) { c.httpClient = hc }
}

// WithRetry sets how often and how fast transient failures are retried.
// maxRetries 0 disables retrying.
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(c *FinanceClient) {
		c.maxRetries = maxRetries
		c.retryBase = base
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(c *FinanceClient) { c.log = log }
}

// NewFinanceClient creates a new Yahoo Finance client.
func NewFinanceClient(opts ...Option) *FinanceClient {
	c := &FinanceClient{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		chartURL:   DefaultChartURL,
		searchURL:  DefaultSearchURL,
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("client", "yahoo").Logger()
	return c
}

// ParseChart converts a raw Yahoo Finance API response into a structured price chart.
// Bars without a close price are skipped. A chart without any bar is still
// valid when the metadata carries a regular market price.
func (c *FinanceClient) ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("%w: no chart returned", apperrors.ErrSymbolNotFound)
	}
	result := yahooResult.Chart.Result[0]

	chart := PriceChart{
		Symbol:           result.Meta.Symbol,
		Currency:         result.Meta.Currency,
		ExchangeName:     result.Meta.ExchangeName,
		FullExchangeName: result.Meta.FullExchangeName,
		LongName:         result.Meta.LongName,
		Shortname:        result.Meta.Shortname,
	}
	if p := result.Meta.RegularMarketPrice; p != nil && *p > 0 {
		chart.RegularMarketPrice = *p
		if result.Meta.RegularMarketTime > 0 {
			chart.RegularMarketTime = time.Unix(result.Meta.RegularMarketTime, 0).UTC()
		}
	}

	var quote Quote
	if len(result.Indicators.Quote) > 0 {
		quote = result.Indicators.Quote[0]
	}
	if len(result.Timestamp) > 0 && len(quote.Close) != len(result.Timestamp) {
		return PriceChart{}, fmt.Errorf("%w: mismatched data lengths", apperrors.ErrPriceUnavailable)
	}

	indicators := make([]Indicators, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := quote.Close[i]
		if closePrice == nil || *closePrice <= 0 {
			continue
		}
		indicators = append(indicators, Indicators{
			Date:       time.Unix(ts, 0).UTC(),
			PriceOpen:  floatAt(quote.Open, i),
			PriceClose: *closePrice,
			Volume:     intAt(quote.Volume, i),
			PriceHigh:  floatAt(quote.High, i),
			PriceLow:   floatAt(quote.Low, i),
		})
	}
	chart.Indicators = indicators

	if len(indicators) == 0 && chart.RegularMarketPrice == 0 {
		return PriceChart{}, fmt.Errorf("%w: no price data returned", apperrors.ErrPriceUnavailable)
	}
	return chart, nil
}

// Name returns the most descriptive name Yahoo knows for the symbol.
func (c PriceChart) Name() string {
	if c.LongName != "" {
		return c.LongName
	}
	return c.Shortname
}

// Latest returns the most recent price: the regular market price when present,
// otherwise the last close.
func (c PriceChart) Latest() (float64, time.Time, bool) {
	if c.RegularMarketPrice > 0 {
		asOf := c.RegularMarketTime
		if asOf.IsZero() && len(c.Indicators) > 0 {
			asOf = c.Indicators[len(c.Indicators)-1].Date
		}
		return c.RegularMarketPrice, asOf, true
	}
	if len(c.Indicators) == 0 {
		return 0, time.Time{}, false
	}
	last := c.Indicators[len(c.Indicators)-1]
	return last.PriceClose, last.Date, true
}

// GetIndicatorForDate searches for price data matching a specific date.
// Only the date part of target is compared.
func (c PriceChart) GetIndicatorForDate(target time.Time) (Indicators, bool) {
	targetDay := target.UTC().Truncate(24 * time.Hour)
	for _, ind := range c.Indicators {
		if ind.Date.UTC().Truncate(24 * time.Hour).Equal(targetDay) {
			return ind, true
		}
	}
	return Indicators{}, false
}

// PriceOnOrBefore returns the last bar traded on or before target's date,
// so weekends and holidays resolve to the previous trading day.
func (c PriceChart) PriceOnOrBefore(target time.Time) (Indicators, bool) {
	cutoff := target.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	var found Indicators
	ok := false
	for _, ind := range c.Indicators {
		if !ind.Date.Before(cutoff) {
			break
		}
		found, ok = ind, true
	}
	return found, ok
}

// QuerySymbolByRange fetches daily bars for a Yahoo range such as "1d", "5d", "3mo" or "1y".
func (c *FinanceClient) QuerySymbolByRange(ctx context.Context, symbol, rng string) (Response, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", rng)
	return c.queryChart(ctx, symbol, params)
}

// QuerySymbolByDateRange fetches daily price data for a symbol within a specific date range.
func (c *FinanceClient) QuerySymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(startDate.Unix(), 10))
	params.Set("period2", strconv.FormatInt(endDate.Unix(), 10))
	return c.queryChart(ctx, symbol, params)
}

func (c *FinanceClient) queryChart(ctx context.Context, symbol string, params url.Values) (Response, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", c.chartURL, url.PathEscape(symbol), params.Encode())

	var response Response
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return Response{}, fmt.Errorf("%s: %w", symbol, err)
	}
	if response.Chart.Error != nil {
		return Response{}, fmt.Errorf("%s: %w: %s", symbol, apperrors.ErrSymbolNotFound, response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("%s: %w: no results returned", symbol, apperrors.ErrSymbolNotFound)
	}
	return response, nil
}

// Search looks up symbols by ticker or company name.
func (c *FinanceClient) Search(ctx context.Context, query string, limit int) ([]SearchQuote, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("quotesCount", strconv.Itoa(limit))
	params.Set("newsCount", "0")
	params.Set("listsCount", "0")

	var response SearchResponse
	if err := c.getJSON(ctx, c.searchURL+"?"+params.Encode(), &response); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	quotes := make([]SearchQuote, 0, len(response.Quotes))
	for _, q := range response.Quotes {
		if q.Symbol == "" {
			continue
		}
		quotes = append(quotes, q)
		if limit > 0 && len(quotes) == limit {
			break
		}
	}
	return quotes, nil
}

// getJSON performs a GET request with retries and decodes the JSON body into out.
func (c *FinanceClient) getJSON(ctx context.Context, endpoint string, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	attempt := 0

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := c.fetch(ctx, endpoint, out)

		var transient *transientError
		if errors.As(err, &transient) {
			if uint64(attempt) <= c.maxRetries {
				c.log.Warn().Err(transient.err).Int("attempt", attempt).Msg("Retrying")
			}
			return retry.RetryableError(transient.err)
		}
		return err
	})

	// retry.Do returns the bare context error when ctx ends between attempts.
	if err != nil && ctx.Err() != nil && !errors.Is(err, apperrors.ErrPriceUnavailable) {
		return fmt.Errorf("%w: %w", apperrors.ErrPriceUnavailable, err)
	}
	return err
}

// transientError marks failures worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (c *FinanceClient) fetch(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrPriceUnavailable, err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", apperrors.ErrPriceUnavailable, err)
		if ctx.Err() != nil {
			return wrapped
		}
		return &transientError{err: wrapped}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &transientError{err: fmt.Errorf("%w: reading response: %w", apperrors.ErrPriceUnavailable, err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", apperrors.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: HTTP %d%s", apperrors.ErrSymbolNotFound, resp.StatusCode, describeChartError(data))
	case resp.StatusCode >= http.StatusInternalServerError:
		return &transientError{err: fmt.Errorf("%w: HTTP %d", apperrors.ErrPriceUnavailable, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: HTTP %d", apperrors.ErrPriceUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid response: %w", apperrors.ErrPriceUnavailable, err)
	}
	return nil
}

// describeChartError extracts Yahoo's error description from a failed chart body.
func describeChartError(data []byte) string {
	var response Response
	if json.Unmarshal(data, &response) != nil || response.Chart.Error == nil {
		return ""
	}
	return ": " + response.Chart.Error.Description
}

func floatAt(values []*float64, i int) float64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return 0
}

func intAt(values []*int64, i int) int64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return 0
}
