package services

import (
	"context"
	"encoding/json"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	appredis "scholarline/internal/redis"
	"scholarline/internal/repository"
	"scholarline/pkg/logger"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttachmentInput struct {
	StorageKey string
	FileURL    string
	FileName   string
}

type SendInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Body           string
	Attachments    []AttachmentInput
}

// MessageService owns the server side of the message lifecycle: insert,
// edit, soft delete, read-state. Field mutation rights follow ownership:
// the sender edits and deletes, the recipient marks read.
type MessageService struct {
	db            *gorm.DB
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	outbox        repository.OutboxRepository
	cache         *appredis.CounterCache
	webhook       *WebhookNotifier
	log           *logger.Logger
}

func NewMessageService(
	db *gorm.DB,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	outbox repository.OutboxRepository,
	cache *appredis.CounterCache,
	webhook *WebhookNotifier,
	log *logger.Logger,
) *MessageService {
	return &MessageService{
		db:            db,
		messages:      messages,
		conversations: conversations,
		outbox:        outbox,
		cache:         cache,
		webhook:       webhook,
		log:           log,
	}
}

// Fetch returns all messages in creation order, attachments included.
// Soft-deleted rows carry the tombstone body.
func (s *MessageService) Fetch(ctx context.Context, conversationID uuid.UUID, viewer domain.Identity) ([]domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParty(viewer.UserID) && viewer.Role != domain.RoleAdmin {
		return nil, scholarline_errors.ErrPermissionDenied
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

// Send inserts the confirmed message row, its attachment rows and the
// outbox event in one transaction, then bumps conversation activity.
func (s *MessageService) Send(ctx context.Context, in SendInput) (domain.Message, error) {
	if in.Body == "" && len(in.Attachments) == 0 {
		return domain.Message{}, scholarline_errors.ErrInvalidInput
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !conv.HasParty(in.SenderID) {
		return domain.Message{}, scholarline_errors.ErrPermissionDenied
	}

	now := time.Now()
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		RecipientID:    conv.Counterparty(in.SenderID),
		Body:           in.Body,
		CreatedAt:      now,
	}
	attachments := make([]domain.Attachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		attachments = append(attachments, domain.Attachment{
			ID:         uuid.New(),
			MessageID:  msg.ID,
			StorageKey: a.StorageKey,
			FileURL:    a.FileURL,
			FileName:   a.FileName,
			UploadedAt: now,
		})
	}

	if s.db == nil {
		if err := s.insertMessage(ctx, s.messages, s.conversations, s.outbox, &msg, attachments); err != nil {
			return domain.Message{}, err
		}
	} else {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.insertMessage(ctx,
				repository.NewMessageRepository(tx),
				repository.NewConversationRepository(tx),
				repository.NewOutboxRepository(tx),
				&msg, attachments)
		})
		if err != nil {
			return domain.Message{}, err
		}
	}

	if err := s.cache.Invalidate(ctx, msg.RecipientID); err != nil && s.log != nil {
		s.log.Warnf("unread cache invalidation failed: %v", err)
	}
	go s.webhook.Notify(events.EventMessageCreated, msg)

	return msg, nil
}

func (s *MessageService) insertMessage(
	ctx context.Context,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	outbox repository.OutboxRepository,
	msg *domain.Message,
	attachments []domain.Attachment,
) error {
	if err := messages.Create(ctx, msg); err != nil {
		return err
	}
	if err := messages.CreateAttachments(ctx, attachments); err != nil {
		return err
	}
	if err := conversations.TouchLastMessage(ctx, msg.ConversationID, msg.CreatedAt); err != nil {
		return err
	}
	msg.Attachments = attachments
	return enqueueOutbox(ctx, outbox, events.EventMessageCreated, msg.ID, *msg)
}

// Edit replaces the body and stamps edited_at. Only the original sender may
// edit, and never after deletion. Re-editing to the same text just
// refreshes the timestamp.
func (s *MessageService) Edit(ctx context.Context, messageID, editorID uuid.UUID, body string) (domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.SenderID != editorID {
		return domain.Message{}, scholarline_errors.ErrPermissionDenied
	}
	if msg.IsDeleted {
		return domain.Message{}, scholarline_errors.ErrPermissionDenied
	}

	now := time.Now()
	if err := s.messages.UpdateBody(ctx, messageID, body, now); err != nil {
		return domain.Message{}, err
	}
	msg.Body = body
	msg.EditedAt = &now

	s.publishUpdate(ctx, msg)
	return msg, nil
}

// Delete soft-deletes: the body becomes the tombstone and the row stays.
// Idempotent; deleting an already-deleted message is a no-op.
func (s *MessageService) Delete(ctx context.Context, messageID, requesterID uuid.UUID) (domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.SenderID != requesterID {
		return domain.Message{}, scholarline_errors.ErrPermissionDenied
	}
	if msg.IsDeleted {
		return msg, nil
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return domain.Message{}, err
	}
	msg.Body = domain.DeletedMessageBody
	msg.IsDeleted = true

	s.publishUpdate(ctx, msg)
	return msg, nil
}

// MarkRead stamps read_at. Recipient-only; already-read is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, messageID, readerID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.RecipientID != readerID {
		return scholarline_errors.ErrPermissionDenied
	}
	if msg.ReadAt != nil {
		return nil
	}

	if err := s.messages.MarkRead(ctx, messageID, time.Now()); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, readerID); err != nil && s.log != nil {
		s.log.Warnf("unread cache invalidation failed: %v", err)
	}
	return nil
}

// MarkAllRead clears the whole conversation for the recipient and returns
// how many rows flipped.
func (s *MessageService) MarkAllRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conv.HasParty(readerID) {
		return 0, scholarline_errors.ErrPermissionDenied
	}

	n, err := s.messages.MarkConversationRead(ctx, conversationID, readerID, time.Now())
	if err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(ctx, readerID); err != nil && s.log != nil {
		s.log.Warnf("unread cache invalidation failed: %v", err)
	}
	return n, nil
}

// MarkReadMany flips a batch of message read-states for the recipient.
func (s *MessageService) MarkReadMany(ctx context.Context, ids []uuid.UUID, readerID uuid.UUID) error {
	if err := s.messages.MarkReadMany(ctx, ids, readerID, time.Now()); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, readerID); err != nil && s.log != nil {
		s.log.Warnf("unread cache invalidation failed: %v", err)
	}
	return nil
}

// UnreadCounts rebuilds the unread-by-counterparty map from the rows and
// mirrors it into the counter cache.
func (s *MessageService) UnreadCounts(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]int, error) {
	counts, err := s.messages.UnreadByCounterparty(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetCounts(ctx, viewerID, counts); err != nil && s.log != nil {
		s.log.Warnf("unread cache write failed: %v", err)
	}
	return counts, nil
}

// CachedUnreadCounts serves the mirrored map when present, falling back to
// a full recompute.
func (s *MessageService) CachedUnreadCounts(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]int, error) {
	counts, ok, err := s.cache.GetCounts(ctx, viewerID)
	if err != nil && s.log != nil {
		s.log.Warnf("unread cache read failed: %v", err)
	}
	if ok {
		return counts, nil
	}
	return s.UnreadCounts(ctx, viewerID)
}

func (s *MessageService) UnreadMessages(ctx context.Context, viewerID uuid.UUID) ([]domain.Message, error) {
	return s.messages.UnreadMessages(ctx, viewerID)
}

func (s *MessageService) UnreadForConversation(ctx context.Context, conversationID, viewerID uuid.UUID) (int64, error) {
	return s.messages.UnreadForConversation(ctx, conversationID, viewerID)
}

func (s *MessageService) publishUpdate(ctx context.Context, msg domain.Message) {
	if err := enqueueOutbox(ctx, s.outbox, events.EventMessageUpdated, msg.ID, msg); err != nil && s.log != nil {
		s.log.Errorf("outbox enqueue failed for %s: %v", msg.ID, err)
	}
}

func enqueueOutbox(ctx context.Context, repo repository.OutboxRepository, eventType string, aggregateID uuid.UUID, payload interface{}) error {
	if repo == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return repo.Create(ctx, &domain.OutboxEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     string(data),
		Status:      domain.OutboxStatusPending,
		CreatedAt:   time.Now(),
	})
}
