package feed

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/polysport/arbmon/internal/platform/polymarket"
)

// BookFetcher fetches one orderbook from the REST API. Implemented by
// polymarket.ClobClient.
type BookFetcher interface {
	Book(ctx context.Context, tokenID string) (polymarket.APIBook, error)
}

// Poller fetches every subscribed orderbook once per cycle over REST. It
// is the fallback feed for environments where the WebSocket is blocked.
// Within a cycle fetches run concurrently, capped by the worker width;
// failed fetches are logged and skipped so one dead market cannot stall
// the rest.
type Poller struct {
	client    BookFetcher
	assets    AssetSource
	handler   BookHandler
	onLatency func(time.Duration)
	logger    *slog.Logger
	interval  time.Duration
	width     int64
}

// NewPoller creates a polling feed. onLatency, when non-nil, observes the
// wall-clock duration of every cycle that fetched at least one book.
func NewPoller(client BookFetcher, assets AssetSource, handler BookHandler, onLatency func(time.Duration), logger *slog.Logger) *Poller {
	return &Poller{
		client:    client,
		assets:    assets,
		handler:   handler,
		onLatency: onLatency,
		logger:    logger.With(slog.String("component", "poller")),
		interval:  time.Second,
		width:     10,
	}
}

// SetInterval changes the cycle interval. Must be called before Run.
func (p *Poller) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

// SetWidth changes the per-cycle fetch concurrency. Must be called before
// Run.
func (p *Poller) SetWidth(n int) {
	if n > 0 {
		p.width = int64(n)
	}
}

// Run polls until ctx is cancelled. A new cycle starts each interval tick;
// a cycle that outlasts the interval simply delays the next one rather
// than stacking up.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("polling feed started", slog.Duration("interval", p.interval))
	defer p.logger.Info("polling feed stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.cycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// cycle fetches every subscribed book once and reports the cycle duration
// as one latency sample.
func (p *Poller) cycle(ctx context.Context) {
	assetIDs := p.assets()
	if len(assetIDs) == 0 {
		return
	}
	start := time.Now()

	sem := semaphore.NewWeighted(p.width)
	g, gctx := errgroup.WithContext(ctx)

	for _, id := range assetIDs {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			p.fetchOne(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	if p.onLatency != nil && ctx.Err() == nil {
		p.onLatency(time.Since(start))
	}
}

func (p *Poller) fetchOne(ctx context.Context, tokenID string) {
	book, err := p.client.Book(ctx, tokenID)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("book fetch failed",
				slog.String("token_id", tokenID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	p.handler(book)
}
