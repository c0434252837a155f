package model

import "time"

// HoldingValuation is the derived view of one holding at current prices.
// Price dependent fields are nil when the holding is stale (no usable price).
type HoldingValuation struct {
	Ticker        string      `json:"ticker"`
	Name          string      `json:"name,omitempty"`
	Currency      string      `json:"currency,omitempty"`
	Quantity      float64     `json:"quantity"`
	CostBasis     float64     `json:"costBasis"`
	CostValue     float64     `json:"costValue"` // quantity * cost basis
	AcquiredOn    time.Time   `json:"acquiredOn,omitzero"`
	CurrentPrice  *float64    `json:"currentPrice"`
	MarketValue   *float64    `json:"marketValue"`   // quantity * current price
	Gain          *float64    `json:"gain"`          // market value - cost value
	GainPct       *float64    `json:"gainPct"`       // gain / cost value * 100, nil when cost value is zero
	AllocationPct *float64    `json:"allocationPct"` // share of the priced total market value
	AsOf          time.Time   `json:"asOf,omitzero"`
	Stale         bool        `json:"stale"`
	PriceStatus   PriceStatus `json:"priceStatus"`
	PriceError    string      `json:"priceError,omitempty"`
}

// ValuationReport aggregates a portfolio at current prices. Totals cover priced
// holdings only; stale holdings are listed but excluded.
type ValuationReport struct {
	ID               string             `json:"id,omitempty"`
	GeneratedAt      time.Time          `json:"generatedAt,omitzero"`
	Holdings         []HoldingValuation `json:"holdings"`
	Currency         string             `json:"currency,omitempty"` // Set when all priced holdings share one currency
	MixedCurrencies  bool               `json:"mixedCurrencies"`    // Priced holdings are quoted in more than one currency
	TotalMarketValue float64            `json:"totalMarketValue"`
	TotalCost        float64            `json:"totalCost"`
	TotalGain        float64            `json:"totalGain"`
	TotalGainPct     *float64           `json:"totalGainPct"`
	PricedCount      int                `json:"pricedCount"`
	StaleCount       int                `json:"staleCount"`
}

// HasStale reports whether any holding lacks a current price.
func (r ValuationReport) HasStale() bool {
	return r.StaleCount > 0
}
