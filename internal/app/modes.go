package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polysport/arbmon/internal/feed"
	"github.com/polysport/arbmon/internal/platform/polymarket"
	"github.com/polysport/arbmon/internal/server"
	"github.com/polysport/arbmon/internal/server/handler"
)

// StreamMode consumes real-time order book updates over the Polymarket
// market websocket and runs the HTTP server alongside.
func (a *App) StreamMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting stream mode",
		slog.String("ws_host", a.cfg.Polymarket.WsHost),
	)

	g, ctx := errgroup.WithContext(ctx)

	ws := feed.NewWSFeed(
		a.cfg.Polymarket.WsHost,
		deps.Monitor.AssetIDs,
		func(book polymarket.APIBook) { deps.Monitor.Ingest(ctx, book) },
		a.logger,
	)
	g.Go(func() error {
		return ws.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// PollMode fetches order books over the CLOB REST API on a fixed interval
// and runs the HTTP server alongside. Cycle durations are fed to the
// monitor latency window.
func (a *App) PollMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting poll mode",
		slog.Duration("interval", a.cfg.Monitor.PollInterval.Duration),
		slog.Int("width", a.cfg.Monitor.PollWidth),
	)

	g, ctx := errgroup.WithContext(ctx)

	poller := feed.NewPoller(
		deps.Clob,
		deps.Monitor.AssetIDs,
		func(book polymarket.APIBook) { deps.Monitor.Ingest(ctx, book) },
		deps.Monitor.ObserveLatency,
		a.logger,
	)
	poller.SetInterval(a.cfg.Monitor.PollInterval.Duration)
	poller.SetWidth(a.cfg.Monitor.PollWidth)
	g.Go(func() error {
		return poller.Run(ctx)
	})

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// startHTTPServer builds the handler set and starts the API server plus a
// shutdown goroutine tied to the group context.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health:     handler.NewHealthHandler(),
		Status:     handler.NewStatusHandler(deps.Monitor),
		Orderbooks: handler.NewOrderbookHandler(deps.Monitor, a.logger),
		Arb:        handler.NewArbHandler(deps.Monitor, a.logger),
		Executions: handler.NewExecutionHandler(deps.Monitor, a.logger),
		Logs:       handler.NewLogsHandler(a.logs),
		Control:    handler.NewControlHandler(deps.Monitor, deps.Gamma, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.InfoContext(ctx, "HTTP server shutting down")
		return srv.Shutdown(shutCtx)
	})
}
