package repository

import (
	"context"
	"time"

	"scholarline/internal/domain"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	// FindByPair returns the earliest conversation for the exact pair, so
	// duplicates created before the unique index existed converge on one row.
	FindByPair(ctx context.Context, staffID, applicantID uuid.UUID) (domain.Conversation, error)
	// FindByApplicant returns the most recently active conversation with the
	// applicant regardless of which staff member owns it.
	FindByApplicant(ctx context.Context, applicantID uuid.UUID) (domain.Conversation, error)
	ListForStaff(ctx context.Context, staffID uuid.UUID, role domain.Role) ([]domain.Conversation, error)
	ListForApplicant(ctx context.Context, applicantID uuid.UUID) ([]domain.Conversation, error)
	TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	UpdateBody(ctx context.Context, id uuid.UUID, body string, editedAt time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkReadMany(ctx context.Context, ids []uuid.UUID, recipientID uuid.UUID, at time.Time) error
	MarkConversationRead(ctx context.Context, conversationID, recipientID uuid.UUID, at time.Time) (int64, error)
	UnreadMessages(ctx context.Context, recipientID uuid.UUID) ([]domain.Message, error)
	UnreadByCounterparty(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int, error)
	UnreadForConversation(ctx context.Context, conversationID, recipientID uuid.UUID) (int64, error)
	CreateAttachments(ctx context.Context, attachments []domain.Attachment) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Notification, error)
	// ListRecent returns rows inside the recency window, read ones included.
	ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkReadMany(ctx context.Context, ids []uuid.UUID, userID uuid.UUID, at time.Time) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	// FirstByRole returns the longest-standing user with the role, which
	// keeps the default-staff fallback deterministic.
	FirstByRole(ctx context.Context, role domain.Role) (domain.User, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, e *domain.OutboxEvent) error
	GetPending(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	IncrementRetry(ctx context.Context, id uuid.UUID) error
}
