package service

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
)

const (
	amountPlaces  = 4
	percentPlaces = 4
)

var (
	hundred = decimal.NewFromInt(100)

	errUnusablePrice = errors.New("price is not a positive finite number")
)

// Value computes the valuation report of p at the given prices.
//
// Holdings without an ok PriceResult are listed with nil price fields, flagged
// stale and excluded from every total. Allocation is computed over priced
// holdings only, so it sums to 100 across them; it stays nil when the priced
// total is zero. An ok result whose price is not a positive finite number is
// treated as unavailable. Value never fails.
func Value(p *model.Portfolio, prices map[string]model.PriceResult) model.ValuationReport {
	report := model.ValuationReport{Holdings: []model.HoldingValuation{}}
	if p == nil {
		return report
	}

	marketValues := make([]decimal.Decimal, 0, p.Len())
	totalMarket := decimal.Zero
	totalCost := decimal.Zero
	currencies := make(map[string]bool)

	for h := range p.List() {
		costValue := h.CostValue()
		v := model.HoldingValuation{
			Ticker:     h.Ticker,
			Quantity:   h.Quantity.InexactFloat64(),
			CostBasis:  h.CostBasis.InexactFloat64(),
			CostValue:  costValue.Round(amountPlaces).InexactFloat64(),
			AcquiredOn: h.AcquiredOn,
		}

		result, ok := prices[h.Ticker]
		if !ok {
			result = model.PriceFailure(h.Ticker, model.PriceUnavailable, nil)
		}
		if result.OK() && !usablePrice(result.Price) {
			result = model.PriceFailure(h.Ticker, model.PriceUnavailable, errUnusablePrice)
		}
		v.PriceStatus = result.Status
		v.Name = result.Name
		v.Currency = result.Currency

		if !result.OK() {
			v.Stale = true
			v.PriceError = result.Error
			report.StaleCount++
			report.Holdings = append(report.Holdings, v)
			marketValues = append(marketValues, decimal.Zero)
			continue
		}

		price := decimal.NewFromFloat(result.Price)
		marketValue := h.Quantity.Mul(price)
		gain := marketValue.Sub(costValue)

		v.CurrentPrice = &result.Price
		v.MarketValue = floatPtr(marketValue, amountPlaces)
		v.Gain = floatPtr(gain, amountPlaces)
		v.GainPct = percent(gain, costValue)
		v.AsOf = result.AsOf

		totalMarket = totalMarket.Add(marketValue)
		totalCost = totalCost.Add(costValue)
		currencies[result.Currency] = true
		report.PricedCount++

		report.Holdings = append(report.Holdings, v)
		marketValues = append(marketValues, marketValue)
	}

	if totalMarket.IsPositive() {
		for i := range report.Holdings {
			if report.Holdings[i].Stale {
				continue
			}
			report.Holdings[i].AllocationPct = percent(marketValues[i], totalMarket)
		}
	}

	totalGain := totalMarket.Sub(totalCost)
	report.TotalMarketValue = totalMarket.Round(amountPlaces).InexactFloat64()
	report.TotalCost = totalCost.Round(amountPlaces).InexactFloat64()
	report.TotalGain = totalGain.Round(amountPlaces).InexactFloat64()
	report.TotalGainPct = percent(totalGain, totalCost)

	switch {
	case len(currencies) == 1:
		for c := range currencies {
			report.Currency = c
		}
	case len(currencies) > 1:
		report.MixedCurrencies = true
	}
	return report
}

func usablePrice(price float64) bool {
	return price > 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}

// percent returns part / whole * 100, or nil when whole is zero.
func percent(part, whole decimal.Decimal) *float64 {
	if whole.IsZero() {
		return nil
	}
	return floatPtr(part.Div(whole).Mul(hundred), percentPlaces)
}

func floatPtr(d decimal.Decimal, places int32) *float64 {
	f := d.Round(places).InexactFloat64()
	return &f
}
