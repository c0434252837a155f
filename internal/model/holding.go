package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one position of a portfolio: a ticker, the number of units held
// and the price paid per unit. Quantity is always positive and CostBasis never
// negative; a zero cost basis marks gifted lots or lots of unknown cost.
type Holding struct {
	Ticker     string          `json:"ticker"`
	Quantity   decimal.Decimal `json:"quantity"`
	CostBasis  decimal.Decimal `json:"costBasis"`
	AcquiredOn time.Time       `json:"acquiredOn,omitzero"` // Purchase date, zero when unknown
}

// CostValue returns the amount originally invested: quantity * cost basis.
func (h Holding) CostValue() decimal.Decimal {
	return h.Quantity.Mul(h.CostBasis)
}

// Equal compares holdings by value, so 10 and 10.0 are the same quantity.
func (h Holding) Equal(o Holding) bool {
	return h.Ticker == o.Ticker &&
		h.Quantity.Equal(o.Quantity) &&
		h.CostBasis.Equal(o.CostBasis) &&
		h.AcquiredOn.Equal(o.AcquiredOn)
}
