package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/apperrors"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/model"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/validation"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

// quoteRange is wide enough that weekends and holidays still yield a last close.
const quoteRange = "5d"

// PriceServiceConfig bounds a batch price fetch.
type PriceServiceConfig struct {
	CacheTTL       time.Duration // 0 disables the quote cache
	Timeout        time.Duration // upper bound for one Fetch call
	MaxConcurrency int           // concurrent upstream lookups per Fetch
}

// DefaultPriceServiceConfig returns the settings used when none are configured.
func DefaultPriceServiceConfig() PriceServiceConfig {
	return PriceServiceConfig{
		CacheTTL:       time.Minute,
		Timeout:        5 * time.Second,
		MaxConcurrency: 8,
	}
}

// PriceService is the price oracle adapter: it turns a batch of tickers into
// one tagged PriceResult per ticker. A failing ticker never affects the others.
type PriceService struct {
	yahooClient yahoo.Client
	quoteRepo   *repository.QuoteRepository
	cfg         PriceServiceConfig
	inflight    singleflight.Group
	log         zerolog.Logger
}

// NewPriceService creates a new PriceService. quoteRepo may be nil to disable caching.
func NewPriceService(
	yahooClient yahoo.Client,
	quoteRepo *repository.QuoteRepository,
	cfg PriceServiceConfig,
	log zerolog.Logger,
) *PriceService {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	return &PriceService{
		yahooClient: yahooClient,
		quoteRepo:   quoteRepo,
		cfg:         cfg,
		log:         log.With().Str("component", "price_service").Logger(),
	}
}

// Fetch looks up the current price of every ticker in one batch.
// The result has exactly one entry per distinct normalized ticker. The whole
// call is bounded by the configured timeout; lookups still pending when it
// expires are reported as unavailable.
func (s *PriceService) Fetch(ctx context.Context, tickers []string) map[string]model.PriceResult {
	unique := make([]string, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = validation.NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}

	results := make(map[string]model.PriceResult, len(unique))
	if len(unique) == 0 {
		return results
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrency)

	for _, ticker := range unique {
		g.Go(func() error {
			result := s.fetchOne(ctx, ticker)
			mu.Lock()
			results[ticker] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Quote looks up a single ticker.
func (s *PriceService) Quote(ctx context.Context, ticker string) model.PriceResult {
	ticker = validation.NormalizeTicker(ticker)
	return s.Fetch(ctx, []string{ticker})[ticker]
}

func (s *PriceService) fetchOne(ctx context.Context, ticker string) model.PriceResult {
	if cached, ok := s.cached(ctx, ticker); ok {
		return cached
	}

	// Concurrent renders asking for the same ticker share one upstream call.
	// The shared call runs detached from any single caller's cancellation.
	ch := s.inflight.DoChan(ticker, func() (any, error) {
		lookupCtx := context.WithoutCancel(ctx)
		if s.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeout(lookupCtx, s.cfg.Timeout)
			defer cancel()
		}
		return s.lookup(lookupCtx, ticker), nil
	})

	select {
	case res := <-ch:
		return res.Val.(model.PriceResult)
	case <-ctx.Done():
		s.log.Warn().Str("ticker", ticker).Err(ctx.Err()).Msg("Price lookup timed out")
		return model.PriceFailure(ticker, model.PriceUnavailable, errors.Join(apperrors.ErrPriceUnavailable, ctx.Err()))
	}
}

func (s *PriceService) cached(ctx context.Context, ticker string) (model.PriceResult, bool) {
	if s.quoteRepo == nil || s.cfg.CacheTTL <= 0 {
		return model.PriceResult{}, false
	}
	result, ok, err := s.quoteRepo.GetIfFresh(ctx, ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to read quote cache")
		return model.PriceResult{}, false
	}
	return result, ok
}

func (s *PriceService) lookup(ctx context.Context, ticker string) model.PriceResult {
	result := s.query(ctx, ticker)
	if !result.OK() {
		s.log.Warn().
			Str("ticker", ticker).
			Str("status", string(result.Status)).
			Str("error", result.Error).
			Msg("Price lookup failed")
		return result
	}

	if s.quoteRepo != nil && s.cfg.CacheTTL > 0 {
		if err := s.quoteRepo.Store(ctx, result, s.cfg.CacheTTL); err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to store quote")
		}
	}
	return result
}

func (s *PriceService) query(ctx context.Context, ticker string) model.PriceResult {
	resp, err := s.yahooClient.QuerySymbolByRange(ctx, ticker, quoteRange)
	if err != nil {
		return model.PriceFailure(ticker, priceStatus(err), err)
	}

	chart, err := s.yahooClient.ParseChart(resp)
	if err != nil {
		return model.PriceFailure(ticker, priceStatus(err), err)
	}

	price, asOf, ok := chart.Latest()
	if !ok {
		return model.PriceFailure(ticker, model.PriceUnavailable, apperrors.ErrPriceUnavailable)
	}

	return model.PriceResult{
		Ticker:   ticker,
		Status:   model.PriceOK,
		Price:    price,
		AsOf:     asOf,
		Currency: chart.Currency,
		Name:     chart.Name(),
		Exchange: chart.FullExchangeName,
	}
}

// priceStatus maps an oracle error onto the PriceResult tag.
func priceStatus(err error) model.PriceStatus {
	switch {
	case errors.Is(err, apperrors.ErrSymbolNotFound):
		return model.PriceNotFound
	case errors.Is(err, apperrors.ErrRateLimited):
		return model.PriceRateLimited
	default:
		return model.PriceUnavailable
	}
}
