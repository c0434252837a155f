package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

const (
	// MaxSuggestions is the number of symbols returned by a search.
	MaxSuggestions = 8

	// DefaultHistoryPeriod is used when no chart period is requested.
	DefaultHistoryPeriod = "3mo"

	// priceLookback is how far before a date a close price is searched for,
	// covering weekends and exchange holidays.
	priceLookback = 7 * 24 * time.Hour
)

// MarketService handles symbol search and historical price lookups.
type MarketService struct {
	yahooClient yahoo.Client
	log         zerolog.Logger
}

// NewMarketService creates a new MarketService.
func NewMarketService(yahooClient yahoo.Client, log zerolog.Logger) *MarketService {
	return &MarketService{
		yahooClient: yahooClient,
		log:         log.With().Str("component", "market_service").Logger(),
	}
}

// Search returns up to MaxSuggestions symbols matching a ticker or company name.
// Queries shorter than validation.MinSearchQueryLength are rejected.
func (s *MarketService) Search(ctx context.Context, query string) ([]model.SymbolSuggestion, error) {
	if err := validation.ValidateSearchQuery(query); err != nil {
		return nil, err
	}

	quotes, err := s.yahooClient.Search(ctx, strings.TrimSpace(query), MaxSuggestions)
	if err != nil {
		return nil, err
	}

	suggestions := make([]model.SymbolSuggestion, 0, len(quotes))
	for _, q := range quotes {
		name := q.Shortname
		if name == "" {
			name = q.Longname
		}
		exchange := q.Exchange
		if exchange == "" {
			exchange = "Unknown"
		}
		suggestions = append(suggestions, model.SymbolSuggestion{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: exchange,
			Type:     q.QuoteType,
		})
	}
	return suggestions, nil
}

// History returns the daily close series of ticker for period (1mo, 3mo, 6mo or 1y).
// An empty period means DefaultHistoryPeriod.
func (s *MarketService) History(ctx context.Context, ticker, period string) (model.PriceHistory, error) {
	ticker = validation.NormalizeTicker(ticker)
	if err := validation.ValidateTicker(ticker); err != nil {
		return model.PriceHistory{}, err
	}
	if period == "" {
		period = DefaultHistoryPeriod
	}
	if err := validation.ValidatePeriod(period); err != nil {
		return model.PriceHistory{}, err
	}

	resp, err := s.yahooClient.QuerySymbolByRange(ctx, ticker, period)
	if err != nil {
		return model.PriceHistory{}, err
	}
	chart, err := s.yahooClient.ParseChart(resp)
	if err != nil {
		return model.PriceHistory{}, err
	}

	points := make([]model.PricePoint, 0, len(chart.Indicators))
	for _, ind := range chart.Indicators {
		points = append(points, model.PricePoint{Date: ind.Date, Close: ind.PriceClose})
	}

	return model.PriceHistory{
		Symbol:   ticker,
		Name:     chart.Name(),
		Currency: chart.Currency,
		Period:   period,
		Points:   points,
	}, nil
}

// PriceOn returns the close price of ticker on date, or on the last trading
// day up to a week before it. Fails with apperrors.ErrNoPriceForDate when no
// trading day falls in that window.
func (s *MarketService) PriceOn(ctx context.Context, ticker string, date time.Time) (model.HistoricalPrice, error) {
	ticker = validation.NormalizeTicker(ticker)
	if err := validation.ValidateTicker(ticker); err != nil {
		return model.HistoricalPrice{}, err
	}
	if date.IsZero() {
		return model.HistoricalPrice{}, &validation.Error{Fields: map[string]string{"date": "date is required"}}
	}

	day := date.UTC().Truncate(24 * time.Hour)
	resp, err := s.yahooClient.QuerySymbolByDateRange(ctx, ticker, day.Add(-priceLookback), day.Add(24*time.Hour))
	if err != nil {
		return model.HistoricalPrice{}, err
	}

	noPrice := fmt.Errorf("%w: %s on or before %s", apperrors.ErrNoPriceForDate, ticker, day.Format(validation.DateLayout))

	chart, err := s.yahooClient.ParseChart(resp)
	if err != nil {
		if errors.Is(err, apperrors.ErrPriceUnavailable) && !hasBars(resp) {
			return model.HistoricalPrice{}, noPrice
		}
		return model.HistoricalPrice{}, err
	}

	ind, ok := chart.PriceOnOrBefore(day)
	if !ok {
		return model.HistoricalPrice{}, noPrice
	}

	return model.HistoricalPrice{
		Symbol:    ticker,
		Requested: day,
		Date:      ind.Date.Truncate(24 * time.Hour),
		Close:     ind.PriceClose,
		Currency:  chart.Currency,
	}, nil
}

func hasBars(resp yahoo.Response) bool {
	return len(resp.Chart.Result) > 0 && len(resp.Chart.Result[0].Timestamp) > 0
}
