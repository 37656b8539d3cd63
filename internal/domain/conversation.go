package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a persistent thread between one staff identity and one
// applicant. At most one row exists per (staff_id, applicant_id) pair;
// the unique index backs the find-or-create path under concurrent first
// contact. Conversations are never deleted.
type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StaffID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair,priority:1" json:"staff_id"`
	ApplicantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair,priority:2" json:"applicant_id"`
	CreatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	LastMessageAt time.Time `gorm:"index:idx_conversations_activity,sort:desc" json:"last_message_at"`
}

// Counterparty returns the other party of the conversation for a viewer.
func (c Conversation) Counterparty(viewerID uuid.UUID) uuid.UUID {
	if viewerID == c.StaffID {
		return c.ApplicantID
	}
	return c.StaffID
}

// HasParty reports whether the user is one of the two participants.
func (c Conversation) HasParty(userID uuid.UUID) bool {
	return userID == c.StaffID || userID == c.ApplicantID
}
