package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types, format domain.action.
const (
	EventMessageCreated      = "message.created"
	EventMessageUpdated      = "message.updated"
	EventNotificationCreated = "notification.created"
)

// Redis channel prefixes.
const (
	ChannelPrefixConversation  = "channel:conversation:"
	ChannelPrefixUser          = "channel:user:"
	ChannelPrefixNotifications = "channel:notifications:"
)

func ConversationChannel(id uuid.UUID) string {
	return ChannelPrefixConversation + id.String()
}

func UserChannel(id uuid.UUID) string {
	return ChannelPrefixUser + id.String()
}

func NotificationsChannel(id uuid.UUID) string {
	return ChannelPrefixNotifications + id.String()
}

// Envelope is the wire format on every channel. Payload carries the affected
// row (domain.Message or domain.Notification) as JSON.
type Envelope struct {
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType string, aggregateID uuid.UUID, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventType:   eventType,
		AggregateID: aggregateID.String(),
		OccurredAt:  time.Now(),
		Payload:     data,
	}, nil
}
