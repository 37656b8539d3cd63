package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	scholarline_errors "scholarline/pkg/errors"
	"scholarline/pkg/logger"

	"github.com/google/uuid"
)

// refreshCooldown throttles event-driven refetches so a burst of
// realtime events collapses into one backend round trip.
const refreshCooldown = 10 * time.Second

// Item is one row in the merged notification feed, from either the
// chat source or the system source.
type Item struct {
	ID             uuid.UUID
	Source         domain.NotificationKind
	Title          string
	Body           string
	Link           string
	ConversationID uuid.UUID
	CreatedAt      time.Time
	Read           bool
}

// Backend supplies both sources and their mark-read operations.
// *services.FeedSource satisfies it.
type Backend interface {
	ChatItems(ctx context.Context, viewerID uuid.UUID) ([]Item, error)
	SystemItems(ctx context.Context, viewerID uuid.UUID) ([]Item, error)
	MarkChatRead(ctx context.Context, id, viewerID uuid.UUID) error
	MarkSystemRead(ctx context.Context, id, viewerID uuid.UUID) error
	MarkConversationRead(ctx context.Context, conversationID, viewerID uuid.UUID) error
	MarkChatReadMany(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) error
	MarkSystemReadMany(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) error
}

// Merge interleaves both sources newest-first and counts the unread
// rows. Every input item appears in the result exactly once.
func Merge(chat, system []Item) ([]Item, int) {
	merged := make([]Item, 0, len(chat)+len(system))
	merged = append(merged, chat...)
	merged = append(merged, system...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	unread := 0
	for _, it := range merged {
		if !it.Read {
			unread++
		}
	}
	return merged, unread
}

// Feed is the merged notification list for one viewer, with optimistic
// mark-read handling and throttled refetching.
type Feed struct {
	mu       sync.Mutex
	viewerID uuid.UUID
	backend  Backend
	log      *logger.Logger

	clock     func() time.Time
	lastFetch time.Time

	items  []Item
	unread int
}

func NewFeed(viewerID uuid.UUID, backend Backend, log *logger.Logger) *Feed {
	return &Feed{
		viewerID: viewerID,
		backend:  backend,
		log:      log,
		clock:    time.Now,
	}
}

// Fetch reloads both sources and rebuilds the merged list. A failure
// on either source keeps the previous list intact.
func (f *Feed) Fetch(ctx context.Context) error {
	chat, err := f.backend.ChatItems(ctx, f.viewerID)
	if err != nil {
		return fmt.Errorf("%w: chat source: %v", scholarline_errors.ErrFetchFailed, err)
	}
	system, err := f.backend.SystemItems(ctx, f.viewerID)
	if err != nil {
		return fmt.Errorf("%w: system source: %v", scholarline_errors.ErrFetchFailed, err)
	}
	merged, unread := Merge(chat, system)

	f.mu.Lock()
	f.items = merged
	f.unread = unread
	f.lastFetch = f.clock()
	f.mu.Unlock()
	return nil
}

// Refresh refetches unless a fetch already ran inside the cooldown
// window. Skipping is not an error.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if !f.lastFetch.IsZero() && f.clock().Sub(f.lastFetch) < refreshCooldown {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()
	return f.Fetch(ctx)
}

// MarkAsRead flips one item read. The flip is optimistic and is not
// rolled back when the backend call fails; the next fetch reconciles.
func (f *Feed) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	var source domain.NotificationKind
	found := false
	for i := range f.items {
		if f.items[i].ID == id {
			if f.items[i].Read {
				f.mu.Unlock()
				return nil
			}
			f.items[i].Read = true
			f.unread--
			source = f.items[i].Source
			found = true
			break
		}
	}
	f.mu.Unlock()
	if !found {
		return scholarline_errors.ErrNotFound
	}

	var err error
	if source == domain.NotificationKindChat {
		err = f.backend.MarkChatRead(ctx, id, f.viewerID)
	} else {
		err = f.backend.MarkSystemRead(ctx, id, f.viewerID)
	}
	if err != nil && f.log != nil {
		f.log.Warnf("feed: mark read %s failed, keeping optimistic state: %v", id, err)
	}
	return err
}

// MarkConversationAsRead removes every chat item of one conversation
// from the feed. Unlike the single-item path this one restores the
// prior list when the backend call fails.
func (f *Feed) MarkConversationAsRead(ctx context.Context, conversationID uuid.UUID) error {
	f.mu.Lock()
	prevItems := make([]Item, len(f.items))
	copy(prevItems, f.items)
	prevUnread := f.unread

	kept := f.items[:0]
	removed := 0
	for _, it := range f.items {
		if it.Source == domain.NotificationKindChat && it.ConversationID == conversationID {
			if !it.Read {
				f.unread--
			}
			removed++
			continue
		}
		kept = append(kept, it)
	}
	f.items = kept
	f.mu.Unlock()

	if removed == 0 {
		return nil
	}
	if err := f.backend.MarkConversationRead(ctx, conversationID, f.viewerID); err != nil {
		f.mu.Lock()
		f.items = prevItems
		f.unread = prevUnread
		f.mu.Unlock()
		return err
	}
	return nil
}

// MarkAllAsRead flips the whole feed read across both sources,
// restoring the snapshot if either backend call fails.
func (f *Feed) MarkAllAsRead(ctx context.Context) error {
	f.mu.Lock()
	prevItems := make([]Item, len(f.items))
	copy(prevItems, f.items)
	prevUnread := f.unread

	var chatIDs, systemIDs []uuid.UUID
	for i := range f.items {
		if f.items[i].Read {
			continue
		}
		if f.items[i].Source == domain.NotificationKindChat {
			chatIDs = append(chatIDs, f.items[i].ID)
		} else {
			systemIDs = append(systemIDs, f.items[i].ID)
		}
		f.items[i].Read = true
	}
	f.unread = 0
	f.mu.Unlock()

	if len(chatIDs) == 0 && len(systemIDs) == 0 {
		return nil
	}

	var err error
	if len(chatIDs) > 0 {
		err = f.backend.MarkChatReadMany(ctx, chatIDs, f.viewerID)
	}
	if err == nil && len(systemIDs) > 0 {
		err = f.backend.MarkSystemReadMany(ctx, systemIDs, f.viewerID)
	}
	if err != nil {
		f.mu.Lock()
		f.items = prevItems
		f.unread = prevUnread
		f.mu.Unlock()
		return err
	}
	return nil
}

// HandleEvent triggers a throttled refetch when a new message or
// system notification lands for the viewer.
func (f *Feed) HandleEvent(ctx context.Context, env events.Envelope) {
	switch env.EventType {
	case events.EventMessageCreated, events.EventNotificationCreated:
		if err := f.Refresh(ctx); err != nil && f.log != nil {
			f.log.Warnf("feed: refresh after %s failed: %v", env.EventType, err)
		}
	}
}

// Items returns a snapshot of the merged feed, newest first.
func (f *Feed) Items() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}

// Unread returns the current unread count across both sources.
func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}
