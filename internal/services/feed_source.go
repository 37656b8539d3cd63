package services

import (
	"context"

	"scholarline/internal/domain"
	"scholarline/internal/feed"

	"github.com/google/uuid"
)

// chatItemTitle labels feed rows derived from unread messages.
const chatItemTitle = "New message"

// FeedSource adapts the message and notification services to the feed
// backend: chat items come straight from unread message rows, system
// items from stored notifications.
type FeedSource struct {
	messages      *MessageService
	notifications *NotificationService
}

func NewFeedSource(messages *MessageService, notifications *NotificationService) *FeedSource {
	return &FeedSource{messages: messages, notifications: notifications}
}

func (s *FeedSource) ChatItems(ctx context.Context, viewerID uuid.UUID) ([]feed.Item, error) {
	msgs, err := s.messages.UnreadMessages(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	items := make([]feed.Item, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, feed.Item{
			ID:             m.ID,
			Source:         domain.NotificationKindChat,
			Title:          chatItemTitle,
			Body:           m.Body,
			ConversationID: m.ConversationID,
			CreatedAt:      m.CreatedAt,
		})
	}
	return items, nil
}

func (s *FeedSource) SystemItems(ctx context.Context, viewerID uuid.UUID) ([]feed.Item, error) {
	rows, err := s.notifications.Recent(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	items := make([]feed.Item, 0, len(rows))
	for _, n := range rows {
		it := feed.Item{
			ID:        n.ID,
			Source:    domain.NotificationKindSystem,
			Title:     n.Title,
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
			Read:      n.IsRead,
		}
		if n.Link != nil {
			it.Link = *n.Link
		}
		if n.ConversationID != nil {
			it.ConversationID = *n.ConversationID
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *FeedSource) MarkChatRead(ctx context.Context, id, viewerID uuid.UUID) error {
	return s.messages.MarkRead(ctx, id, viewerID)
}

func (s *FeedSource) MarkSystemRead(ctx context.Context, id, viewerID uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, viewerID)
}

func (s *FeedSource) MarkConversationRead(ctx context.Context, conversationID, viewerID uuid.UUID) error {
	_, err := s.messages.MarkAllRead(ctx, conversationID, viewerID)
	return err
}

func (s *FeedSource) MarkChatReadMany(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) error {
	return s.messages.MarkReadMany(ctx, ids, viewerID)
}

func (s *FeedSource) MarkSystemReadMany(ctx context.Context, ids []uuid.UUID, viewerID uuid.UUID) error {
	return s.notifications.MarkReadMany(ctx, ids, viewerID)
}
