// Package registry tracks which events the monitor is subscribed to and
// maintains the token-to-display-name mapping derived from them.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/polysport/arbmon/internal/domain"
)

// Registry holds the subscribed events and the bidirectional token/name
// index built from their markets. A token's display name is the market
// question joined with the outcome label, so every outcome of every market
// gets a unique, human-readable identity.
//
// The registry is not safe for concurrent use; the monitor serializes
// access to it.
type Registry struct {
	events map[string]domain.Event
	byID   map[string]string // token ID -> display name
	byName map[string]string // display name -> token ID
	logger *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		events: make(map[string]domain.Event),
		byID:   make(map[string]string),
		byName: make(map[string]string),
		logger: logger.With(slog.String("component", "registry")),
	}
}

// DisplayName builds the canonical name for one outcome of a market.
func DisplayName(question, outcome string) string {
	return question + " - " + outcome
}

// Subscribe adds or replaces an event and rebuilds the token index.
// Markets whose token and outcome lists differ in length are rejected so
// the index can never associate a token with the wrong outcome.
func (r *Registry) Subscribe(event domain.Event) error {
	for _, m := range event.Markets {
		if len(m.TokenIDs) != len(m.Outcomes) {
			return fmt.Errorf("registry: market %s: %d tokens for %d outcomes", m.ID, len(m.TokenIDs), len(m.Outcomes))
		}
	}
	r.events[event.ID] = event
	r.rebuild()
	r.logger.Info("event subscribed",
		slog.String("event_id", event.ID),
		slog.String("title", event.Title),
		slog.Int("markets", len(event.Markets)),
	)
	return nil
}

// Unsubscribe removes an event and rebuilds the token index. Removing an
// unknown event returns ErrNotFound.
func (r *Registry) Unsubscribe(eventID string) error {
	if _, ok := r.events[eventID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.events, eventID)
	r.rebuild()
	r.logger.Info("event unsubscribed", slog.String("event_id", eventID))
	return nil
}

// rebuild reconstructs both index maps from scratch. A full rebuild keeps
// unsubscription simple: tokens from removed events just stop existing.
func (r *Registry) rebuild() {
	r.byID = make(map[string]string)
	r.byName = make(map[string]string)
	for _, event := range r.events {
		for _, m := range event.Markets {
			for i, tokenID := range m.TokenIDs {
				name := DisplayName(m.Question, m.Outcomes[i])
				r.byID[tokenID] = name
				r.byName[name] = tokenID
			}
		}
	}
}

// AssetIDs returns every subscribed token ID, sorted for deterministic
// subscribe payloads.
func (r *Registry) AssetIDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NameOf resolves a token ID to its display name.
func (r *Registry) NameOf(tokenID string) (string, bool) {
	name, ok := r.byID[tokenID]
	return name, ok
}

// TokenOf resolves a display name back to its token ID. This satisfies the
// detector's TokenResolver interface.
func (r *Registry) TokenOf(name string) (string, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Events returns the subscribed events sorted by title.
func (r *Registry) Events() []domain.Event {
	out := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Len reports how many events are subscribed.
func (r *Registry) Len() int {
	return len(r.events)
}

// TokenCount reports how many outcome tokens the index currently covers.
func (r *Registry) TokenCount() int {
	return len(r.byID)
}
