package repository

import (
	"context"
	"errors"
	"time"

	"scholarline/internal/domain"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *domain.Message) error {
	res := r.db.WithContext(ctx).Omit("Attachments").Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return scholarline_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).Preload("Attachments").Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, scholarline_errors.ErrNotFound
		}
		return domain.Message{}, err
	}
	return m, nil
}

// ListByConversation returns every message in creation order. Soft-deleted
// rows stay in the result with the tombstone body already in place.
func (r *PostgresMessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *PostgresMessageRepository) UpdateBody(ctx context.Context, id uuid.UUID, body string, editedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND is_deleted = false", id).
		Updates(map[string]interface{}{
			"body":      body,
			"edited_at": editedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return scholarline_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND is_deleted = false", id).
		Updates(map[string]interface{}{
			"body":       domain.DeletedMessageBody,
			"is_deleted": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return scholarline_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if res.Error != nil {
		return res.Error
	}
	// Zero rows means it was already read; the transition is idempotent.
	return nil
}

func (r *PostgresMessageRepository) MarkReadMany(ctx context.Context, ids []uuid.UUID, recipientID uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id IN ? AND recipient_id = ? AND read_at IS NULL", ids, recipientID).
		Update("read_at", at).Error
}

func (r *PostgresMessageRepository) MarkConversationRead(ctx context.Context, conversationID, recipientID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL", conversationID, recipientID).
		Update("read_at", at)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostgresMessageRepository) UnreadMessages(ctx context.Context, recipientID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND read_at IS NULL AND is_deleted = false", recipientID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// UnreadByCounterparty rebuilds the whole unread map in one pass; callers
// never patch it incrementally.
func (r *PostgresMessageRepository) UnreadByCounterparty(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int, error) {
	type row struct {
		SenderID uuid.UUID
		Total    int
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("sender_id, COUNT(*) AS total").
		Where("recipient_id = ? AND read_at IS NULL AND is_deleted = false", recipientID).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		counts[r.SenderID] = r.Total
	}
	return counts, nil
}

func (r *PostgresMessageRepository) UnreadForConversation(ctx context.Context, conversationID, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND read_at IS NULL AND is_deleted = false", conversationID, recipientID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresMessageRepository) CreateAttachments(ctx context.Context, attachments []domain.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&attachments).Error
}
