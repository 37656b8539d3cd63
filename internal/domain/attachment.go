package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is created only alongside a message send and is immutable
// thereafter. FileName keeps the original (unsanitized) name for display;
// StorageKey is the sanitized, conversation-scoped blob locator.
type Attachment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID  uuid.UUID `gorm:"type:uuid;not null;index:idx_attachments_message" json:"message_id"`
	StorageKey string    `gorm:"type:text;not null" json:"storage_key"`
	FileURL    string    `gorm:"type:text" json:"file_url"`
	FileName   string    `gorm:"type:text;not null" json:"file_name"`
	UploadedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"uploaded_at"`
}
