package model

import "time"

// SymbolSuggestion is one result of a ticker search.
type SymbolSuggestion struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type,omitempty"`
}

// PricePoint is a daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceHistory is the close series used by the price chart.
type PriceHistory struct {
	Symbol   string       `json:"symbol"`
	Name     string       `json:"name,omitempty"`
	Currency string       `json:"currency,omitempty"`
	Period   string       `json:"period"`
	Points   []PricePoint `json:"points"`
}

// HistoricalPrice is the close price used for a given date.
// Date is the trading day the price comes from, which may precede Requested.
type HistoricalPrice struct {
	Symbol    string    `json:"symbol"`
	Requested time.Time `json:"requested"`
	Date      time.Time `json:"date"`
	Close     float64   `json:"close"`
	Currency  string    `json:"currency,omitempty"`
}
