// Package logbuf retains the most recent log records in memory so the
// HTTP API can serve them. It wraps another slog.Handler and tees every
// record into a bounded ring buffer.
package logbuf

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Entry is one retained log record, flattened for JSON serving.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   string            `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// buffer is the shared ring. Handler clones created by WithAttrs and
// WithGroup all write into the same buffer.
type buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	filled  int
}

func (b *buffer) add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.filled < len(b.entries) {
		b.filled++
	}
}

func (b *buffer) snapshot(limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0, b.filled)
	start := b.next - b.filled
	if start < 0 {
		start += len(b.entries)
	}
	for i := 0; i < b.filled; i++ {
		out = append(out, b.entries[(start+i)%len(b.entries)])
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Handler tees records into the ring and forwards them to the wrapped
// handler unchanged.
type Handler struct {
	inner slog.Handler
	buf   *buffer
}

// New wraps inner with a ring of the given capacity.
func New(inner slog.Handler, capacity int) *Handler {
	if capacity <= 0 {
		capacity = 500
	}
	return &Handler{
		inner: inner,
		buf:   &buffer{entries: make([]Entry, capacity)},
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	entry := Entry{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: record.Message,
	}
	if record.NumAttrs() > 0 {
		entry.Attrs = make(map[string]string, record.NumAttrs())
		record.Attrs(func(attr slog.Attr) bool {
			entry.Attrs[attr.Key] = attr.Value.String()
			return true
		})
	}
	h.buf.add(entry)
	return h.inner.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs), buf: h.buf}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), buf: h.buf}
}

// Entries returns up to limit most recent records, oldest first. limit <= 0
// returns everything retained.
func (h *Handler) Entries(limit int) []Entry {
	return h.buf.snapshot(limit)
}
