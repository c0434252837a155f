package request

import "github.com/shopspring/decimal"

// AddHoldingRequest represents the request body for adding a holding.
// Quantity and CostBasis accept JSON numbers or numeric strings.
// When CostBasis is omitted, the close price on AcquiredOn is used.
type AddHoldingRequest struct {
	Ticker     string           `json:"ticker"`
	Quantity   decimal.Decimal  `json:"quantity"`
	CostBasis  *decimal.Decimal `json:"costBasis,omitempty"`
	AcquiredOn string           `json:"acquiredOn,omitempty"` // YYYY-MM-DD
}
