package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/feed"
	"scholarline/internal/unread"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readSyncCounts struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

func (c *readSyncCounts) UnreadCounts(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uuid.UUID]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out, nil
}

func (c *readSyncCounts) set(counts map[uuid.UUID]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = counts
}

type readSyncBackend struct {
	mu        sync.Mutex
	chat      []feed.Item
	system    []feed.Item
	convReads []uuid.UUID
}

func (b *readSyncBackend) ChatItems(ctx context.Context, viewerID uuid.UUID) ([]feed.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]feed.Item(nil), b.chat...), nil
}

func (b *readSyncBackend) SystemItems(ctx context.Context, viewerID uuid.UUID) ([]feed.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]feed.Item(nil), b.system...), nil
}

func (b *readSyncBackend) MarkChatRead(ctx context.Context, id, viewerID uuid.UUID) error {
	return nil
}

func (b *readSyncBackend) MarkSystemRead(ctx context.Context, id, viewerID uuid.UUID) error {
	return nil
}

func (b *readSyncBackend) MarkConversationRead(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.convReads = append(b.convReads, conversationID)
	return nil
}

func (b *readSyncBackend) MarkChatReadMany(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) error {
	return nil
}

func (b *readSyncBackend) MarkSystemReadMany(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) error {
	return nil
}

// Marking the conversation read in the session drains every unread
// surface for its counterparty: the aggregator's count and badge drop
// to zero and the feed sheds the conversation's chat rows.
func TestMarkAllReadDrainsBadgeAndFeed(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	source := &readSyncCounts{counts: map[uuid.UUID]int{f.other: 2}}
	agg := unread.NewAggregator(f.viewer.UserID, source, nil)
	require.NoError(t, agg.Recompute(ctx))
	agg.SetHint(f.other, 3)
	require.Equal(t, 3, agg.CountFor(f.other))
	require.Equal(t, 3, agg.Badge())

	backend := &readSyncBackend{
		chat: []feed.Item{
			{ID: uuid.New(), Source: domain.NotificationKindChat, ConversationID: f.conv.ID, CreatedAt: time.Now()},
			{ID: uuid.New(), Source: domain.NotificationKindChat, ConversationID: f.conv.ID, CreatedAt: time.Now().Add(-time.Minute)},
		},
		system: []feed.Item{
			{ID: uuid.New(), Source: domain.NotificationKindSystem, Title: "award posted", CreatedAt: time.Now()},
		},
	}
	viewerFeed := feed.NewFeed(f.viewer.UserID, backend, nil)
	require.NoError(t, viewerFeed.Fetch(ctx))
	require.Equal(t, 3, viewerFeed.Unread())

	// The server flips the rows, so the next recompute sees zero.
	f.store.readAll = 2
	f.store.markAllHook = func() { source.set(map[uuid.UUID]int{}) }

	SyncReadState(f.session, agg, viewerFeed)
	n, err := f.session.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Zero(t, agg.CountFor(f.other))
	assert.Zero(t, agg.Badge())

	items := viewerFeed.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "award posted", items[0].Title)
	assert.Equal(t, 1, viewerFeed.Unread())
	assert.Equal(t, []uuid.UUID{f.conv.ID}, backend.convReads)
}
