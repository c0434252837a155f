package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

// MockYahooClient is a mock implementation of yahoo.Client for testing.
// It returns predefined test data instead of making actual API calls and is
// safe for concurrent use, since prices are fetched in parallel.
type MockYahooClient struct {
	mu sync.Mutex

	// MockResponse is the chart returned for symbols without a specific response
	MockResponse yahoo.Response
	// MockError is returned for symbols without a specific response or error
	MockError error
	// Responses holds per-symbol charts
	Responses map[string]yahoo.Response
	// Errors holds per-symbol errors; they take precedence over Responses
	Errors map[string]error
	// SearchResults is returned by Search
	SearchResults []yahoo.SearchQuote
	// SearchError is returned by Search
	SearchError error
	// Delay is applied to every chart query, honouring context cancellation
	Delay time.Duration

	queryCount   int
	symbolCounts map[string]int
	lastRange    string
}

// NewMockYahooClient creates a new mock Yahoo client with default test data.
// The default data includes 5 days of historical prices suitable for testing.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{
		MockResponse: CreateMockYahooResponse("TEST", 5, 100),
		Responses:    make(map[string]yahoo.Response),
		Errors:       make(map[string]error),
		symbolCounts: make(map[string]int),
	}
}

// QuerySymbolByRange returns the configured chart for symbol.
func (m *MockYahooClient) QuerySymbolByRange(ctx context.Context, symbol, rng string) (yahoo.Response, error) {
	m.mu.Lock()
	m.lastRange = rng
	m.mu.Unlock()
	return m.query(ctx, symbol)
}

// QuerySymbolByDateRange returns the configured chart for symbol.
func (m *MockYahooClient) QuerySymbolByDateRange(ctx context.Context, symbol string, _, _ time.Time) (yahoo.Response, error) {
	return m.query(ctx, symbol)
}

func (m *MockYahooClient) query(ctx context.Context, symbol string) (yahoo.Response, error) {
	m.mu.Lock()
	m.queryCount++
	m.symbolCounts[symbol]++
	delay := m.Delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return yahoo.Response{}, fmt.Errorf("%w: %w", apperrors.ErrPriceUnavailable, ctx.Err())
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Errors[symbol]; ok {
		return yahoo.Response{}, err
	}
	if resp, ok := m.Responses[symbol]; ok {
		return resp, nil
	}
	if m.MockError != nil {
		return yahoo.Response{}, m.MockError
	}
	return m.MockResponse, nil
}

// Search returns the configured search results.
func (m *MockYahooClient) Search(_ context.Context, _ string, limit int) ([]yahoo.SearchQuote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SearchError != nil {
		return nil, m.SearchError
	}
	results := m.SearchResults
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ParseChart delegates to the real ParseChart method since it's pure logic with no side effects.
func (m *MockYahooClient) ParseChart(yahooResult yahoo.Response) (yahoo.PriceChart, error) {
	return yahoo.NewFinanceClient().ParseChart(yahooResult)
}

// QueryCount returns how many chart queries were made.
func (m *MockYahooClient) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCount
}

// QueryCountFor returns how many chart queries were made for symbol.
func (m *MockYahooClient) QueryCountFor(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.symbolCounts[symbol]
}

// LastRange returns the range of the last QuerySymbolByRange call.
func (m *MockYahooClient) LastRange() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRange
}

// WithError configures the mock to return the specified error.
func (m *MockYahooClient) WithError(err error) *MockYahooClient {
	m.MockError = err
	return m
}

// WithResponse configures the mock to return the specified response.
func (m *MockYahooClient) WithResponse(resp yahoo.Response) *MockYahooClient {
	m.MockResponse = resp
	return m
}

// WithPrice configures a chart for symbol whose latest price is price.
func (m *MockYahooClient) WithPrice(symbol string, price float64) *MockYahooClient {
	m.Responses[symbol] = CreateMockYahooQuote(symbol, price, "USD")
	return m
}

// WithSymbolResponse configures the chart returned for symbol.
func (m *MockYahooClient) WithSymbolResponse(symbol string, resp yahoo.Response) *MockYahooClient {
	m.Responses[symbol] = resp
	return m
}

// WithSymbolError configures the error returned for symbol.
func (m *MockYahooClient) WithSymbolError(symbol string, err error) *MockYahooClient {
	m.Errors[symbol] = err
	return m
}

// WithSearchResults configures the search results.
func (m *MockYahooClient) WithSearchResults(results ...yahoo.SearchQuote) *MockYahooClient {
	m.SearchResults = results
	return m
}

// WithDelay makes every chart query wait for d.
func (m *MockYahooClient) WithDelay(d time.Duration) *MockYahooClient {
	m.Delay = d
	return m
}

// CreateMockYahooResponse creates a mock Yahoo Finance chart with `days` daily
// bars ending yesterday. Closes rise by 0.5 per day starting at basePrice+0.25.
func CreateMockYahooResponse(symbol string, days int, basePrice float64) yahoo.Response {
	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)

	timestamps := make([]int64, days)
	opens := make([]*float64, days)
	highs := make([]*float64, days)
	lows := make([]*float64, days)
	closes := make([]*float64, days)
	volumes := make([]*int64, days)

	for i := 0; i < days; i++ {
		date := yesterday.AddDate(0, 0, -days+i+1)
		timestamps[i] = date.Unix()

		dayPrice := basePrice + float64(i)*0.5
		open := dayPrice
		high := dayPrice + 1.0
		low := dayPrice - 0.5
		closePrice := dayPrice + 0.25
		volume := int64(1000000 + i*10000)

		opens[i] = &open
		highs[i] = &high
		lows[i] = &low
		closes[i] = &closePrice
		volumes[i] = &volume
	}

	return chartResponse(symbol, "USD", timestamps, yahoo.Quote{
		Open:   opens,
		High:   highs,
		Low:    lows,
		Close:  closes,
		Volume: volumes,
	}, nil)
}

// CreateMockYahooQuote creates a chart whose regular market price is price.
func CreateMockYahooQuote(symbol string, price float64, currency string) yahoo.Response {
	now := time.Now().UTC().Truncate(time.Minute)
	resp := chartResponse(symbol, currency, []int64{now.Unix()}, yahoo.Quote{
		Close: []*float64{&price},
	}, &price)
	resp.Chart.Result[0].Meta.RegularMarketTime = now.Unix()
	return resp
}

// CreateMockYahooResponseForDate creates a mock Yahoo response with a single day's data.
func CreateMockYahooResponseForDate(symbol string, date time.Time, price float64) yahoo.Response {
	volume := int64(1000000)
	return chartResponse(symbol, "USD", []int64{date.Unix()}, yahoo.Quote{
		Open:   []*float64{&price},
		High:   []*float64{&price},
		Low:    []*float64{&price},
		Close:  []*float64{&price},
		Volume: []*int64{&volume},
	}, nil)
}

func chartResponse(symbol, currency string, timestamps []int64, quote yahoo.Quote, marketPrice *float64) yahoo.Response {
	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:             symbol,
						Currency:           currency,
						ExchangeName:       "NMS",
						FullExchangeName:   "NASDAQ",
						LongName:           symbol + " Test Inc.",
						Shortname:          symbol,
						RegularMarketPrice: marketPrice,
					},
					Timestamp: timestamps,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{quote},
					},
				},
			},
		},
	}
}
