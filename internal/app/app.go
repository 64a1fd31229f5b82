// Package app provides the top-level application lifecycle for the arbitrage
// monitor. It wires together the Polymarket clients, the order book store,
// the detector, the execution engine, and the monitor, then starts the feed
// and HTTP server goroutines for the configured operating mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/polysport/arbmon/internal/config"
	"github.com/polysport/arbmon/internal/domain"
	"github.com/polysport/arbmon/internal/logbuf"
)

// App is the root application object. It owns the configuration, the logger,
// and the in-memory log buffer exposed over the HTTP API.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	logs   *logbuf.Handler
}

// New creates a new App from the given configuration, logger, and log buffer.
func New(cfg *config.Config, logger *slog.Logger, logs *logbuf.Handler) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
		logs:   logs,
	}
}

// Run is the main entry point. It wires all dependencies, subscribes the
// configured events, selects the operating mode, and blocks until the context
// is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Monitor.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps := Wire(a.cfg, a.logger)

	if err := a.bootstrap(ctx, deps); err != nil {
		return fmt.Errorf("app: bootstrap: %w", err)
	}

	mode := strings.ToLower(a.cfg.Monitor.Mode)
	switch mode {
	case "stream":
		return a.StreamMode(ctx, deps)
	case "poll":
		return a.PollMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Monitor.Mode)
	}
}

// bootstrap subscribes the configured event slugs, optionally discovers
// upcoming sports events, and starts the monitor when auto-start is on.
// A slug that fails to resolve is logged and skipped so one stale entry in
// the configuration does not prevent startup.
func (a *App) bootstrap(ctx context.Context, deps *Dependencies) error {
	for _, slug := range a.cfg.Monitor.EventSlugs {
		event, err := deps.Gamma.EventBySlug(ctx, slug)
		if err != nil {
			a.logger.WarnContext(ctx, "bootstrap: event lookup failed",
				slog.String("slug", slug),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := deps.Monitor.Subscribe(event); err != nil {
			a.logger.WarnContext(ctx, "bootstrap: subscribe failed",
				slog.String("slug", slug),
				slog.String("error", err.Error()),
			)
		}
	}

	if a.cfg.Monitor.AutoDiscover {
		events, err := deps.Gamma.UpcomingSportsEvents(ctx, a.cfg.Monitor.DiscoveryLimit)
		if err != nil {
			a.logger.WarnContext(ctx, "bootstrap: event discovery failed",
				slog.String("error", err.Error()),
			)
		}
		for _, event := range events {
			if err := deps.Monitor.Subscribe(event); err != nil {
				a.logger.WarnContext(ctx, "bootstrap: subscribe discovered event failed",
					slog.String("event_id", event.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	a.logger.InfoContext(ctx, "bootstrap complete",
		slog.Int("events", len(deps.Monitor.Events())),
		slog.Int("assets", len(deps.Monitor.AssetIDs())),
	)

	if a.cfg.Monitor.AutoStart {
		if err := deps.Monitor.Start(); err != nil && !errors.Is(err, domain.ErrAlreadyRunning) {
			return err
		}
	}
	return nil
}
