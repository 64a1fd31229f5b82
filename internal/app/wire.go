package app

import (
	"log/slog"

	"github.com/polysport/arbmon/internal/config"
	"github.com/polysport/arbmon/internal/detector"
	"github.com/polysport/arbmon/internal/executor"
	"github.com/polysport/arbmon/internal/monitor"
	"github.com/polysport/arbmon/internal/platform/polymarket"
	"github.com/polysport/arbmon/internal/registry"
	"github.com/polysport/arbmon/internal/store"
)

// Dependencies bundles everything the operating modes need: the Polymarket
// API clients and the fully assembled monitor pipeline.
type Dependencies struct {
	Gamma   *polymarket.GammaClient
	Clob    *polymarket.ClobClient
	Monitor *monitor.Monitor
	Engine  *executor.Engine
}

// Wire constructs all dependencies from the configuration. The CLOB client is
// always built since the poller needs it for book fetches; the execution
// engine only receives it as a trading client when an API key is configured.
func Wire(cfg *config.Config, logger *slog.Logger) *Dependencies {
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, cfg.Polymarket.ApiKey, cfg.Polymarket.RateLimitRPS)

	var trading executor.TradingClient
	if cfg.Polymarket.ApiKey != "" {
		trading = clob
	}
	engine := executor.New(
		trading,
		cfg.Execution.AutoExecute,
		cfg.Execution.Bankroll,
		cfg.Execution.MinProfitPercent,
		cfg.Execution.MaxResults,
		logger,
	)

	reg := registry.New(logger)
	books := store.New(cfg.Monitor.HistoryCapacity)
	det := detector.New(reg, cfg.Monitor.MaxRecords, logger)
	mon := monitor.New(reg, books, det, engine, cfg.Monitor.Mode, cfg.Monitor.LatencyWindow, logger)

	return &Dependencies{
		Gamma:   gamma,
		Clob:    clob,
		Monitor: mon,
		Engine:  engine,
	}
}
