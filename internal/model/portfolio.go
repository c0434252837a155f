package model

import (
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

// MaxHoldings bounds a portfolio so its share link stays a few thousand characters long.
const MaxHoldings = 100

// CostBasisPrecision is the number of decimal places kept when merged lots
// produce a weighted-average cost basis.
const CostBasisPrecision = 6

// Portfolio is the user's book: an ordered list of holdings, unique by ticker.
// It lives only for one request; its durable form is the encoded share link,
// and callers re-encode it after every mutation.
//
// The zero value is an empty portfolio ready to use.
type Portfolio struct {
	holdings []Holding
}

// NewPortfolio returns an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{}
}

// Add inserts a holding, or merges it into the holding already recorded for
// the same ticker. The ticker is normalized to upper case.
//
// Merge policy: quantities are summed, the cost basis becomes the
// quantity-weighted average of both lots (rounded to CostBasisPrecision
// places) and the earliest known purchase date is kept.
//
// Returns a *validation.Error when quantity <= 0, costBasis < 0, either amount
// is too precise or too long for the share link (also checked on the merged
// lot), the ticker is empty or contains a disallowed character, or the
// portfolio is full.
// The portfolio is left untouched on error.
func (p *Portfolio) Add(ticker string, quantity, costBasis decimal.Decimal, acquiredOn time.Time) error {
	ticker = validation.NormalizeTicker(ticker)
	if err := validation.ValidateHolding(ticker, quantity, costBasis); err != nil {
		return err
	}
	if !acquiredOn.IsZero() {
		acquiredOn = truncateToDate(acquiredOn)
	}

	if i := p.index(ticker); i >= 0 {
		existing := p.holdings[i]
		total := existing.Quantity.Add(quantity)
		invested := existing.CostValue().Add(quantity.Mul(costBasis))
		average := invested.Div(total).Round(CostBasisPrecision)
		if err := validation.ValidateHolding(ticker, total, average); err != nil {
			return err
		}

		existing.Quantity = total
		existing.CostBasis = average
		existing.AcquiredOn = earliest(existing.AcquiredOn, acquiredOn)
		p.holdings[i] = existing
		return nil
	}

	if len(p.holdings) >= MaxHoldings {
		return &validation.Error{Fields: map[string]string{
			"ticker": fmt.Sprintf("%s: portfolio already holds the maximum of %d tickers", apperrors.ErrPortfolioFull, MaxHoldings),
		}}
	}

	p.holdings = append(p.holdings, Holding{
		Ticker:     ticker,
		Quantity:   quantity,
		CostBasis:  costBasis,
		AcquiredOn: acquiredOn,
	})
	return nil
}

// Remove deletes the holding for ticker. Removing an absent ticker is a no-op.
// Reports whether a holding was removed.
func (p *Portfolio) Remove(ticker string) bool {
	i := p.index(validation.NormalizeTicker(ticker))
	if i < 0 {
		return false
	}
	p.holdings = append(p.holdings[:i:i], p.holdings[i+1:]...)
	return true
}

// Clear removes every holding.
func (p *Portfolio) Clear() {
	p.holdings = nil
}

// List yields the holdings in insertion order. The sequence is lazy and can be
// ranged over any number of times; it reads the portfolio as it is when iterated.
func (p *Portfolio) List() iter.Seq[Holding] {
	return func(yield func(Holding) bool) {
		for _, h := range p.holdings {
			if !yield(h) {
				return
			}
		}
	}
}

// Get returns the holding recorded for ticker.
func (p *Portfolio) Get(ticker string) (Holding, bool) {
	i := p.index(validation.NormalizeTicker(ticker))
	if i < 0 {
		return Holding{}, false
	}
	return p.holdings[i], true
}

// Len returns the number of holdings.
func (p *Portfolio) Len() int {
	return len(p.holdings)
}

// Tickers returns the held tickers in insertion order.
func (p *Portfolio) Tickers() []string {
	tickers := make([]string, len(p.holdings))
	for i, h := range p.holdings {
		tickers[i] = h.Ticker
	}
	return tickers
}

// Equal reports whether both portfolios hold the same holdings in the same order.
func (p *Portfolio) Equal(o *Portfolio) bool {
	if p.Len() != o.Len() {
		return false
	}
	for i := range p.holdings {
		if !p.holdings[i].Equal(o.holdings[i]) {
			return false
		}
	}
	return true
}

func (p *Portfolio) index(ticker string) int {
	for i, h := range p.holdings {
		if h.Ticker == ticker {
			return i
		}
	}
	return -1
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	}
	return a
}
