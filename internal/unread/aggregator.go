package unread

import (
	"context"
	"encoding/json"
	"sync"

	"scholarline/internal/events"
	"scholarline/pkg/logger"

	"github.com/google/uuid"
)

// Source supplies the authoritative unread counts grouped by
// counterparty. *services.MessageService satisfies it.
type Source interface {
	UnreadCounts(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]int, error)
}

// Aggregator tracks per-counterparty unread counts for one viewer.
// The global map holds the last full recompute; hints hold optimistic
// local adjustments layered on top until the next recompute confirms
// or supersedes them. Each hint records the generation it was set at,
// so a recompute can tell a stale hint from one raised while its query
// was in flight.
type Aggregator struct {
	mu       sync.Mutex
	viewerID uuid.UUID
	source   Source
	log      *logger.Logger

	gen     uint64
	global  map[uuid.UUID]int
	hints   map[uuid.UUID]int
	hintGen map[uuid.UUID]uint64
}

func NewAggregator(viewerID uuid.UUID, source Source, log *logger.Logger) *Aggregator {
	return &Aggregator{
		viewerID: viewerID,
		source:   source,
		log:      log,
		global:   make(map[uuid.UUID]int),
		hints:    make(map[uuid.UUID]int),
		hintGen:  make(map[uuid.UUID]uint64),
	}
}

// Recompute replaces the global counts with a fresh full query. Counts
// are never adjusted incrementally server-side; a failed recompute
// leaves the previous counts in place. A successful one also drops
// every hint set before its query started: the fresh map is the truth
// for those, and keeping them would pin the badge above it forever.
// Hints raised while the query was in flight survive one more pass.
func (a *Aggregator) Recompute(ctx context.Context) error {
	a.mu.Lock()
	start := a.gen
	a.mu.Unlock()

	counts, err := a.source.UnreadCounts(ctx, a.viewerID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.global = counts
	for id, g := range a.hintGen {
		if g <= start {
			delete(a.hints, id)
			delete(a.hintGen, id)
		}
	}
	a.mu.Unlock()
	return nil
}

// SetHint records a locally-known unread count for a counterparty,
// typically from a conversation the viewer currently has open.
func (a *Aggregator) SetHint(counterpartyID uuid.UUID, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.hints[counterpartyID] = n
	a.hintGen[counterpartyID] = a.gen
}

// BumpHint raises the local hint by one for an arriving message.
func (a *Aggregator) BumpHint(counterpartyID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.hints[counterpartyID]++
	a.hintGen[counterpartyID] = a.gen
}

// ClearHint drops the local hint, e.g. after the conversation was
// marked fully read.
func (a *Aggregator) ClearHint(counterpartyID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.hints, counterpartyID)
	delete(a.hintGen, counterpartyID)
}

// CountFor returns the displayed count for one counterparty: the local
// hint wins when it is ahead of the last recompute.
func (a *Aggregator) CountFor(counterpartyID uuid.UUID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return max(a.hints[counterpartyID], a.global[counterpartyID])
}

// Badge returns the total displayed on the viewer's badge.
func (a *Aggregator) Badge() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	var hinted, global int
	for _, n := range a.hints {
		hinted += n
	}
	for _, n := range a.global {
		global += n
	}
	return max(hinted, global)
}

// Counts returns a snapshot of the effective per-counterparty counts.
func (a *Aggregator) Counts() map[uuid.UUID]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[uuid.UUID]int, len(a.global)+len(a.hints))
	for id, n := range a.global {
		out[id] = n
	}
	for id, n := range a.hints {
		if n > out[id] {
			out[id] = n
		}
	}
	return out
}

// HandleEvent reacts to a realtime message event on the viewer's
// channel: bump the hint so the badge moves immediately, then schedule
// a full recompute for the authoritative number.
func (a *Aggregator) HandleEvent(ctx context.Context, env events.Envelope) {
	switch env.EventType {
	case events.EventMessageCreated, events.EventMessageUpdated:
	default:
		return
	}

	var payload struct {
		SenderID    uuid.UUID `json:"sender_id"`
		RecipientID uuid.UUID `json:"recipient_id"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		if a.log != nil {
			a.log.Warnf("unread: dropping malformed %s event: %v", env.EventType, err)
		}
		return
	}
	if env.EventType == events.EventMessageCreated && payload.RecipientID == a.viewerID {
		current := a.CountFor(payload.SenderID)
		a.SetHint(payload.SenderID, current+1)
	}
	if err := a.Recompute(ctx); err != nil && a.log != nil {
		a.log.Warnf("unread: recompute after %s failed: %v", env.EventType, err)
	}
}
