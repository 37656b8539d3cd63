package services

import (
	"context"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	"scholarline/internal/repository"
	"scholarline/pkg/logger"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/google/uuid"
)

// Recency window and page cap for the system-notification feed source.
const (
	systemWindow = 30 * 24 * time.Hour
	systemLimit  = 100
)

type SystemNotificationInput struct {
	UserID         uuid.UUID
	Title          string
	Body           string
	Link           string
	ConversationID *uuid.UUID
}

// NotificationService owns the system-source notification rows. Chat-source
// feed items are derived from unread messages and never pass through here.
type NotificationService struct {
	repo    repository.NotificationRepository
	outbox  repository.OutboxRepository
	webhook *WebhookNotifier
	log     *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, outbox repository.OutboxRepository, webhook *WebhookNotifier, log *logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, outbox: outbox, webhook: webhook, log: log}
}

// CreateSystem inserts a payment/system event row and announces it on the
// change feed.
func (s *NotificationService) CreateSystem(ctx context.Context, in SystemNotificationInput) (domain.Notification, error) {
	if in.UserID == uuid.Nil || in.Title == "" {
		return domain.Notification{}, scholarline_errors.ErrInvalidInput
	}

	n := domain.Notification{
		ID:             uuid.New(),
		UserID:         in.UserID,
		Kind:           domain.NotificationKindSystem,
		Title:          in.Title,
		Body:           in.Body,
		ConversationID: in.ConversationID,
		CreatedAt:      time.Now(),
	}
	if in.Link != "" {
		n.Link = &in.Link
	}

	if err := s.repo.Create(ctx, &n); err != nil {
		return domain.Notification{}, err
	}
	if err := enqueueOutbox(ctx, s.outbox, events.EventNotificationCreated, n.ID, n); err != nil && s.log != nil {
		s.log.Errorf("outbox enqueue failed for %s: %v", n.ID, err)
	}
	go s.webhook.Notify(events.EventNotificationCreated, n)

	return n, nil
}

// Recent returns the bounded-recency window of system notifications,
// already-read ones included for context.
func (s *NotificationService) Recent(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	return s.repo.ListRecent(ctx, userID, time.Now().Add(-systemWindow), systemLimit)
}

// MarkRead flips one notification; idempotent, owner-only.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return scholarline_errors.ErrPermissionDenied
	}
	if n.IsRead {
		return nil
	}
	return s.repo.MarkRead(ctx, id, time.Now())
}

// MarkReadMany flips a batch of the owner's notifications.
func (s *NotificationService) MarkReadMany(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) error {
	return s.repo.MarkReadMany(ctx, ids, userID, time.Now())
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
