package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

// TestPriceConfig is the price service configuration used in tests: a short
// timeout and caching enabled.
func TestPriceConfig() service.PriceServiceConfig {
	return service.PriceServiceConfig{
		CacheTTL:       time.Minute,
		Timeout:        2 * time.Second,
		MaxConcurrency: 4,
	}
}

// NewTestPriceService creates a PriceService backed by the given Yahoo client
// and a quote cache in db. Pass a nil db to disable caching.
func NewTestPriceService(t *testing.T, db *sql.DB, yahooClient yahoo.Client) *service.PriceService {
	t.Helper()

	var quoteRepo *repository.QuoteRepository
	if db != nil {
		quoteRepo = repository.NewQuoteRepository(db)
	}
	return service.NewPriceService(yahooClient, quoteRepo, TestPriceConfig(), zerolog.Nop())
}

// NewTestMarketService creates a MarketService backed by the given Yahoo client.
func NewTestMarketService(t *testing.T, yahooClient yahoo.Client) *service.MarketService {
	t.Helper()
	return service.NewMarketService(yahooClient, zerolog.Nop())
}

// NewTestPortfolioService creates a PortfolioService wired to the given Yahoo
// client and a quote cache in db.
func NewTestPortfolioService(t *testing.T, db *sql.DB, yahooClient yahoo.Client) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(
		NewTestPriceService(t, db, yahooClient),
		NewTestMarketService(t, yahooClient),
		zerolog.Nop(),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}
