package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/request"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/codec"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
)

// Dashboard is one render cycle: the decoded portfolio, its valuation and the
// canonical share code of the state that was rendered.
type Dashboard struct {
	Portfolio *model.Portfolio
	Report    model.ValuationReport
	Code      string
}

// PortfolioService runs the render cycle and the portfolio mutations.
// It holds no per-user state: every call takes the encoded portfolio and
// mutations return the new code, leaving the input untouched on failure.
type PortfolioService struct {
	priceService  *PriceService
	marketService *MarketService
	log           zerolog.Logger
	now           func() time.Time
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(priceService *PriceService, marketService *MarketService, log zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		priceService:  priceService,
		marketService: marketService,
		log:           log.With().Str("component", "portfolio_service").Logger(),
		now:           time.Now,
	}
}

// Render decodes the portfolio, fetches all prices in one batch and values it.
// Price failures never fail the render; they show up as stale holdings.
func (s *PortfolioService) Render(ctx context.Context, encoded string) (*Dashboard, error) {
	p, err := codec.Decode(encoded)
	if err != nil {
		return nil, err
	}

	prices := s.priceService.Fetch(ctx, p.Tickers())
	report := Value(p, prices)
	report.ID = uuid.NewString()
	report.GeneratedAt = s.now().UTC()

	if report.HasStale() {
		s.log.Warn().
			Str("report_id", report.ID).
			Int("stale", report.StaleCount).
			Int("holdings", len(report.Holdings)).
			Msg("Rendered portfolio with stale prices")
	}

	return &Dashboard{
		Portfolio: p,
		Report:    report,
		Code:      codec.Encode(p),
	}, nil
}

// Share returns the canonical share code of an encoded portfolio.
// Legacy and non-canonical codes are rewritten to the current format.
func (s *PortfolioService) Share(encoded string) (string, error) {
	p, err := codec.Decode(encoded)
	if err != nil {
		return "", err
	}
	return codec.Encode(p), nil
}

// AddHolding adds a holding to the encoded portfolio and returns the new code.
// When the request has no cost basis, the close price on the purchase date is used.
func (s *PortfolioService) AddHolding(ctx context.Context, encoded string, req request.AddHoldingRequest) (string, error) {
	if err := validation.ValidateAddHolding(req, s.now()); err != nil {
		return "", err
	}

	p, err := codec.Decode(encoded)
	if err != nil {
		return "", err
	}

	ticker := validation.NormalizeTicker(req.Ticker)
	acquiredOn, _ := validation.ParseDate(req.AcquiredOn)

	var costBasis decimal.Decimal
	if req.CostBasis != nil {
		costBasis = *req.CostBasis
	} else {
		costBasis, err = s.historicalCost(ctx, ticker, acquiredOn)
		if err != nil {
			return "", err
		}
	}

	if err := p.Add(ticker, req.Quantity, costBasis, acquiredOn); err != nil {
		return "", err
	}
	return codec.Encode(p), nil
}

func (s *PortfolioService) historicalCost(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, error) {
	price, err := s.marketService.PriceOn(ctx, ticker, date)
	switch {
	case errors.Is(err, apperrors.ErrNoPriceForDate), errors.Is(err, apperrors.ErrSymbolNotFound):
		return decimal.Zero, &validation.Error{Fields: map[string]string{
			"costBasis": fmt.Sprintf("no close price found for %s on or before %s, enter the cost basis",
				ticker, date.Format(validation.DateLayout)),
		}}
	case err != nil:
		return decimal.Zero, fmt.Errorf("failed to look up cost basis: %w", err)
	}

	s.log.Debug().
		Str("ticker", ticker).
		Time("requested", price.Requested).
		Time("date", price.Date).
		Float64("close", price.Close).
		Msg("Resolved cost basis from historical close")

	return decimal.NewFromFloat(price.Close).Round(model.CostBasisPrecision), nil
}

// RemoveHolding removes ticker from the encoded portfolio. Removing an absent
// ticker is a no-op; the boolean reports whether a holding was removed.
func (s *PortfolioService) RemoveHolding(encoded, ticker string) (string, bool, error) {
	p, err := codec.Decode(encoded)
	if err != nil {
		return "", false, err
	}
	removed := p.Remove(ticker)
	return codec.Encode(p), removed, nil
}

// ClearHoldings returns the code of the empty portfolio.
func (s *PortfolioService) ClearHoldings() string {
	return codec.Encode(model.NewPortfolio())
}
