// Package feed delivers orderbook updates to the monitor, either streamed
// over the CLOB WebSocket or polled from the CLOB REST API. The two sources
// are alternatives; exactly one runs at a time.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polysport/arbmon/internal/domain"
	"github.com/polysport/arbmon/internal/platform/polymarket"
)

// BookHandler consumes one orderbook event from a feed source.
type BookHandler func(book polymarket.APIBook)

// AssetSource supplies the outcome token IDs to watch. It is consulted on
// every (re)connect and every poll cycle so subscription changes take
// effect without restarting the feed.
type AssetSource func() []string

// WSFeed streams orderbook events from the CLOB market WebSocket channel.
// On any read or connect failure it waits a fixed interval and dials again
// from scratch, resubscribing with the current asset set.
type WSFeed struct {
	url           string
	assets        AssetSource
	handler       BookHandler
	logger        *slog.Logger
	reconnectWait time.Duration
}

// NewWSFeed creates a streaming feed against the given WebSocket URL, e.g.
// "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewWSFeed(url string, assets AssetSource, handler BookHandler, logger *slog.Logger) *WSFeed {
	return &WSFeed{
		url:           url,
		assets:        assets,
		handler:       handler,
		logger:        logger.With(slog.String("component", "ws_feed")),
		reconnectWait: 5 * time.Second,
	}
}

// Run connects and streams until ctx is cancelled. It never returns nil
// before cancellation; transient failures are retried internally.
func (f *WSFeed) Run(ctx context.Context) error {
	f.logger.Info("websocket feed started", slog.String("url", f.url))
	defer f.logger.Info("websocket feed stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := f.runConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("websocket connection lost, reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("wait", f.reconnectWait),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.reconnectWait):
		}
	}
}

// runConnection dials, subscribes, and reads frames until the connection
// fails or ctx is cancelled. The read blocks without a deadline; a watcher
// goroutine closes the connection on cancellation to unblock it. Any read
// error is fatal to the connection, never to the loop in Run.
func (f *WSFeed) runConnection(ctx context.Context) error {
	assetIDs := f.assets()
	if len(assetIDs) == 0 {
		return fmt.Errorf("feed: no subscribed assets")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", f.url, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(polymarket.NewMarketSubscription(assetIDs)); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	f.logger.Info("subscribed to market channel", slog.Int("assets", len(assetIDs)))

	// Closing the connection is the only way to interrupt a blocked read.
	readerDone := make(chan struct{})
	defer close(readerDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-readerDone:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("feed: %w: %s", domain.ErrWSDisconnect, err.Error())
		}

		books, err := polymarket.ParseWSFrame(data)
		if err != nil {
			f.logger.Warn("skipping unparseable frame", slog.String("error", err.Error()))
			continue
		}
		for i := range books {
			f.handler(books[i])
		}
	}
}
