package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Finance-Portfolio-Tracker/internal/api/middleware"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/renderer"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
)

// Services groups the services the router dispatches to.
type Services struct {
	System    *service.SystemService
	Portfolio *service.PortfolioService
	Market    *service.MarketService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, rnd *renderer.Renderer, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// HTML dashboard
	dashboardHandler := handlers.NewDashboardHandler(services.Portfolio, rnd)
	r.Get("/", dashboardHandler.Index)
	r.Route("/holdings", func(r chi.Router) {
		r.Post("/", dashboardHandler.AddHolding)
		r.Post("/delete", dashboardHandler.RemoveHolding)
		r.Post("/clear", dashboardHandler.ClearHoldings)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(services.Portfolio, rnd)
			r.Get("/", portfolioHandler.Refresh)
			r.Get("/share", portfolioHandler.Share)
			r.Get("/report", portfolioHandler.Report)

			r.Route("/holdings", func(r chi.Router) {
				r.Post("/", portfolioHandler.AddHolding)
				r.Delete("/", portfolioHandler.ClearHoldings)
				r.With(custommiddleware.ValidateTickerMiddleware).Delete("/{ticker}", portfolioHandler.RemoveHolding)
			})
		})

		r.Route("/symbol", func(r chi.Router) {
			symbolHandler := handlers.NewSymbolHandler(services.Market)
			r.Get("/search", symbolHandler.Search)

			r.Route("/{ticker}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateTickerMiddleware)
				r.Get("/history", symbolHandler.History)
				r.Get("/price", symbolHandler.Price)
			})
		})
	})

	return r
}
