package events

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ResolveChannels maps an event payload to the channels it belongs on.
// Message events go to the conversation topic and to the recipient's user
// topic (so the unread aggregator sees inserts for conversations it is not
// currently viewing); notification events go to the owner's topic.
func ResolveChannels(eventType string, payload []byte) []string {
	switch eventType {
	case EventMessageCreated, EventMessageUpdated:
		var m struct {
			ConversationID uuid.UUID `json:"conversation_id"`
			RecipientID    uuid.UUID `json:"recipient_id"`
		}
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil
		}
		channels := []string{ConversationChannel(m.ConversationID)}
		if m.RecipientID != uuid.Nil {
			channels = append(channels, UserChannel(m.RecipientID))
		}
		return channels
	case EventNotificationCreated:
		var n struct {
			UserID uuid.UUID `json:"user_id"`
		}
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil
		}
		return []string{NotificationsChannel(n.UserID)}
	}
	return nil
}
