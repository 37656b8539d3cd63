package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_conversation" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null" json:"sender_id"`
	RecipientID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_recipient" json:"recipient_id"`
	Body           string     `gorm:"type:text" json:"body"`
	CreatedAt      time.Time  `gorm:"default:CURRENT_TIMESTAMP;index:idx_messages_created" json:"created_at"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	IsDeleted      bool       `gorm:"default:false" json:"is_deleted"`

	// Relations
	Attachments []Attachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
}
