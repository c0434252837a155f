// Command pftrack manages a shareable portfolio code from the terminal.
//
// Every command takes the current code with -portfolio and prints the new one,
// so the output of one command feeds the next:
//
//	code=$(pftrack add -ticker AAPL -quantity 10 -cost 150)
//	pftrack show -portfolio "$code"
package main

import (
	"context"
	"flag"
	"os"
	"path"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/config"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/logging"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/renderer"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/service"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	a, err := newApp()
	if err != nil {
		startup := zerolog.New(os.Stderr).With().Timestamp().Logger()
		startup.Fatal().Err(err).Msg("Failed to start")
	}
	register(commander, a)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register adds the portfolio commands to c.
func register(c *subcommands.Commander, a *app) {
	c.Register(&addCmd{app: a}, "portfolio")
	c.Register(&removeCmd{app: a}, "portfolio")
	c.Register(&clearCmd{app: a}, "portfolio")
	c.Register(&showCmd{app: a}, "portfolio")
	c.Register(&searchCmd{app: a}, "market")
}

// newApp wires the services from the environment. The CLI keeps no quote
// cache and logs to stderr so stdout only carries results.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithWriter(cfg.Log, os.Stderr)

	yahooClient := yahoo.NewFinanceClient(
		yahoo.WithChartURL(cfg.Yahoo.ChartURL),
		yahoo.WithSearchURL(cfg.Yahoo.SearchURL),
		yahoo.WithRetry(cfg.Price.MaxRetries, 200*time.Millisecond),
		yahoo.WithLogger(logger),
	)

	priceService := service.NewPriceService(yahooClient, nil, service.PriceServiceConfig{
		Timeout:        cfg.Price.Timeout,
		MaxConcurrency: cfg.Price.MaxConcurrency,
	}, logger)
	marketService := service.NewMarketService(yahooClient, logger)

	rnd, err := renderer.New(cfg.Server.PublicURL)
	if err != nil {
		return nil, err
	}

	return &app{
		portfolios: service.NewPortfolioService(priceService, marketService, logger),
		market:     marketService,
		renderer:   rnd,
		out:        os.Stdout,
		errOut:     os.Stderr,
	}, nil
}
