package chat

import (
	"context"

	"scholarline/internal/feed"
	"scholarline/internal/unread"

	"github.com/google/uuid"
)

// SyncReadState wires a session's mark-all-read into the viewer's
// unread aggregator and notification feed: the conversation's hint is
// cleared and the counts recomputed so CountFor drops to zero, and the
// feed sheds the conversation's chat rows. The badge settles without
// waiting for the next realtime event.
func SyncReadState(s *Session, agg *unread.Aggregator, f *feed.Feed) {
	s.OnConversationRead(func(ctx context.Context, conversationID, counterpartyID uuid.UUID) {
		agg.ClearHint(counterpartyID)
		if err := agg.Recompute(ctx); err != nil && s.log != nil {
			s.log.Warnf("chat: unread recompute after read failed: %v", err)
		}
		if err := f.MarkConversationAsRead(ctx, conversationID); err != nil && s.log != nil {
			s.log.Warnf("chat: feed sync after read failed: %v", err)
		}
	})
}
