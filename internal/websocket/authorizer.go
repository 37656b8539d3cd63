package websocket

import (
	"context"
	"strings"

	"scholarline/internal/domain"
	"scholarline/internal/events"
	"scholarline/internal/repository"

	"github.com/google/uuid"
)

// ChannelAuthorizer decides which realtime channels a user may attach to.
type ChannelAuthorizer struct {
	conversations repository.ConversationRepository
}

func NewChannelAuthorizer(conversations repository.ConversationRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{conversations: conversations}
}

// CanSubscribe checks a channel against the caller's identity. Personal
// channels are self-only; conversation channels require the caller to be a
// party, with admins allowed anywhere.
func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, identity domain.Identity, channel string) (bool, error) {
	self := identity.UserID.String()

	if channel == events.ChannelPrefixUser+self || channel == events.ChannelPrefixNotifications+self {
		return true, nil
	}

	if strings.HasPrefix(channel, events.ChannelPrefixConversation) {
		convID, err := uuid.Parse(strings.TrimPrefix(channel, events.ChannelPrefixConversation))
		if err != nil {
			return false, nil
		}
		conv, err := a.conversations.GetByID(ctx, convID)
		if err != nil {
			return false, nil
		}
		if conv.HasParty(identity.UserID) {
			return true, nil
		}
		return identity.Role == domain.RoleAdmin, nil
	}

	// Other users' personal channels and anything unrecognized.
	return false, nil
}
