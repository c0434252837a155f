package model

import "time"

// PriceStatus tags a PriceResult as a success or one of the oracle failure kinds.
type PriceStatus string

const (
	PriceOK          PriceStatus = "ok"
	PriceNotFound    PriceStatus = "not_found"
	PriceRateLimited PriceStatus = "rate_limited"
	PriceUnavailable PriceStatus = "unavailable"
)

// PriceResult is the outcome of a price lookup for one ticker.
// Price, AsOf and the metadata fields are only meaningful when Status is PriceOK;
// Error carries the failure reason otherwise.
type PriceResult struct {
	Ticker   string      `json:"ticker"`
	Status   PriceStatus `json:"status"`
	Price    float64     `json:"price,omitempty"`
	AsOf     time.Time   `json:"asOf,omitzero"`
	Currency string      `json:"currency,omitempty"`
	Name     string      `json:"name,omitempty"`
	Exchange string      `json:"exchange,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// OK reports whether the lookup produced a usable price.
func (r PriceResult) OK() bool {
	return r.Status == PriceOK
}

// PriceFailure builds a failed PriceResult.
func PriceFailure(ticker string, status PriceStatus, err error) PriceResult {
	result := PriceResult{Ticker: ticker, Status: status}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
