package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (name, currency, exchange, last trade)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Price data arrays (open, close, high, low, volume)
//   - Chart.Error: Optional error object from Yahoo API
//
// Yahoo reports missing bars as null, so every indicator value is a pointer.
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the envelope of a chart response.
type Chart struct {
	Result []Result   `json:"result"`
	Error  *ChartError `json:"error"`
}

// ChartError is the error object Yahoo embeds in failed chart responses,
// e.g. {"code": "Not Found", "description": "No data found, symbol may be delisted"}.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Result holds the chart of one symbol.
type Result struct {
	Meta       Meta                `json:"meta"`
	Timestamp  []int64             `json:"timestamp"`
	Indicators IndicatorsContainer `json:"indicators"`
}

// Meta carries the symbol metadata and the last traded price.
type Meta struct {
	Currency           string   `json:"currency"`
	Symbol             string   `json:"symbol"`
	ExchangeName       string   `json:"exchangeName"`
	FullExchangeName   string   `json:"fullExchangeName"`
	InstrumentType     string   `json:"instrumentType"`
	LongName           string   `json:"longName"`
	Shortname          string   `json:"shortName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	RegularMarketTime  int64    `json:"regularMarketTime"`
}

// IndicatorsContainer wraps the quote arrays.
type IndicatorsContainer struct {
	Quote []Quote `json:"quote"`
}

// Quote holds the OHLCV arrays, index-aligned with Result.Timestamp.
type Quote struct {
	Open   []*float64 `json:"open"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
}

// PriceChart represents a parsed and structured price chart from Yahoo Finance.
// This is the application's internal representation after parsing the raw Response.
// Indicators are in chronological order and only contain bars with a close price.
type PriceChart struct {
	Currency           string       `json:"currency"`
	Symbol             string       `json:"symbol"`
	ExchangeName       string       `json:"exchangeName"`
	FullExchangeName   string       `json:"fullExchangeName"`
	LongName           string       `json:"longName"`
	Shortname          string       `json:"shortName"`
	RegularMarketPrice float64      `json:"regularMarketPrice,omitempty"`
	RegularMarketTime  time.Time    `json:"regularMarketTime,omitzero"`
	Indicators         []Indicators `json:"indicators"`
}

// Indicators represents a single day's price data for a financial instrument.
// Fields other than PriceClose are zero when Yahoo returned null for them.
type Indicators struct {
	Date       time.Time
	PriceOpen  float64
	PriceClose float64
	Volume     int64
	PriceHigh  float64
	PriceLow   float64
}

// SearchResponse is the raw response of the Yahoo Finance search API.
type SearchResponse struct {
	Quotes []SearchQuote `json:"quotes"`
}

// SearchQuote is one symbol match returned by the search API.
type SearchQuote struct {
	Symbol    string `json:"symbol"`
	Shortname string `json:"shortname"`
	Longname  string `json:"longname"`
	Exchange  string `json:"exchange"`
	ExchDisp  string `json:"exchDisp"`
	QuoteType string `json:"quoteType"`
}
