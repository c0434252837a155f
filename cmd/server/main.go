package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/database"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/logging"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/renderer"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/repository"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/version"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

// retryBase is the first backoff delay between Yahoo retries.
const retryBase = 200 * time.Millisecond

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(cfg.Log)
	logging.SetGlobalLogger(logger)

	// Open quote cache
	db, err := database.Open(cfg.Cache.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open quote cache")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate quote cache")
	}
	logger.Info().Str("path", cfg.Cache.Path).Msg("Quote cache ready")

	quoteRepo := repository.NewQuoteRepository(db)

	yahooClient := yahoo.NewFinanceClient(
		yahoo.WithChartURL(cfg.Yahoo.ChartURL),
		yahoo.WithSearchURL(cfg.Yahoo.SearchURL),
		yahoo.WithRetry(cfg.Price.MaxRetries, retryBase),
		yahoo.WithLogger(logger),
	)

	// Create services
	systemService := service.NewSystemService(db)
	priceService := service.NewPriceService(yahooClient, quoteRepo, service.PriceServiceConfig{
		CacheTTL:       cfg.Cache.TTL,
		Timeout:        cfg.Price.Timeout,
		MaxConcurrency: cfg.Price.MaxConcurrency,
	}, logger)
	marketService := service.NewMarketService(yahooClient, logger)
	portfolioService := service.NewPortfolioService(priceService, marketService, logger)

	rnd, err := renderer.New(cfg.Server.PublicURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load templates")
	}

	// Schedule quote cache cleanup
	scheduler := cron.New()
	cleanup := service.NewCleanupJob(quoteRepo, logger)
	if _, err := scheduler.AddJob(cfg.Cache.CleanupSchedule, cleanup); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Cache.CleanupSchedule).Msg("Invalid cleanup schedule")
	}
	scheduler.Start()
	logger.Info().Str("job", cleanup.Name()).Str("schedule", cfg.Cache.CleanupSchedule).Msg("Job registered")

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Portfolio: portfolioService,
		Market:    marketService,
	}, rnd, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Str("public_url", cfg.Server.PublicURL).
			Str("version", version.Version).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	<-scheduler.Stop().Done()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	logger.Info().Msg("Server exited")
}
