package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a system-source feed row (payment and other product
// events). Chat-source feed items are derived from unread messages and are
// never stored here.
type Notification struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user" json:"user_id"`
	Kind           NotificationKind `gorm:"type:varchar(16);not null" json:"kind"`
	Title          string           `gorm:"type:text;not null" json:"title"`
	Body           string           `gorm:"type:text" json:"body"`
	Link           *string          `gorm:"type:text" json:"link,omitempty"`
	ConversationID *uuid.UUID       `gorm:"type:uuid" json:"conversation_id,omitempty"`
	MessageID      *uuid.UUID       `gorm:"type:uuid" json:"message_id,omitempty"`
	IsRead         bool             `gorm:"default:false;index:idx_notifications_unread" json:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
