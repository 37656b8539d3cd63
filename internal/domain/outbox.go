package domain

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusCompleted  OutboxStatus = "COMPLETED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
)

// OutboxEvent is written in the same transaction as the row it describes
// and published to the change feed by the outbox worker. This is what makes
// real-time delivery at-least-once: rows survive a crashed publish.
type OutboxEvent struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	EventType   string       `gorm:"type:varchar(64);not null" json:"event_type"`
	AggregateID uuid.UUID    `gorm:"type:uuid;not null" json:"aggregate_id"`
	Payload     string       `gorm:"type:text;not null" json:"payload"`
	Status      OutboxStatus `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_outbox_status" json:"status"`
	RetryCount  int          `gorm:"default:0" json:"retry_count"`
	LastError   *string      `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}
