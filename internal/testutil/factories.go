package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/codec"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example:
//
//	code := testutil.NewPortfolio().
//	    WithHolding("AAPL", 10, 100).
//	    WithDatedHolding("MSFT", 2, 300, "2024-03-01").
//	    Encode(t)
type PortfolioBuilder struct {
	holdings []model.Holding
}

// NewPortfolio creates a builder for an empty portfolio.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{}
}

// WithHolding adds a holding without a purchase date.
func (b *PortfolioBuilder) WithHolding(ticker string, quantity, costBasis float64) *PortfolioBuilder {
	b.holdings = append(b.holdings, model.Holding{
		Ticker:    ticker,
		Quantity:  decimal.NewFromFloat(quantity),
		CostBasis: decimal.NewFromFloat(costBasis),
	})
	return b
}

// WithDatedHolding adds a holding with a "2006-01-02" purchase date.
func (b *PortfolioBuilder) WithDatedHolding(ticker string, quantity, costBasis float64, date string) *PortfolioBuilder {
	acquiredOn, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	b.holdings = append(b.holdings, model.Holding{
		Ticker:     ticker,
		Quantity:   decimal.NewFromFloat(quantity),
		CostBasis:  decimal.NewFromFloat(costBasis),
		AcquiredOn: acquiredOn,
	})
	return b
}

// Build creates the portfolio, failing the test if a holding is invalid.
func (b *PortfolioBuilder) Build(t *testing.T) *model.Portfolio {
	t.Helper()

	p := model.NewPortfolio()
	for _, h := range b.holdings {
		if err := p.Add(h.Ticker, h.Quantity, h.CostBasis, h.AcquiredOn); err != nil {
			t.Fatalf("Failed to add test holding %s: %v", h.Ticker, err)
		}
	}
	return p
}

// Encode builds the portfolio and returns its share code.
func (b *PortfolioBuilder) Encode(t *testing.T) string {
	t.Helper()
	return codec.Encode(b.Build(t))
}

// OKPrice builds a successful price result.
func OKPrice(ticker string, price float64) model.PriceResult {
	return model.PriceResult{
		Ticker:   ticker,
		Status:   model.PriceOK,
		Price:    price,
		AsOf:     time.Now().UTC().Truncate(time.Second),
		Currency: "USD",
	}
}
