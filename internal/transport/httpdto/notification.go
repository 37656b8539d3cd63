package httpdto

// CreateNotificationRequest is used for POST /notifications: other product
// services push system-source rows (payment results and the like) here.
type CreateNotificationRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Body           string `json:"body"`
	Link           string `json:"link,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type NotificationDTO struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	Link           string `json:"link,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      string `json:"created_at"`
}

// FeedItemDTO is one row of the merged feed, chat and system sources
// interleaved newest-first.
type FeedItemDTO struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	Link           string `json:"link,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Read           bool   `json:"read"`
	CreatedAt      string `json:"created_at"`
}

type FeedResponse struct {
	Items  []FeedItemDTO `json:"items"`
	Unread int           `json:"unread"`
}

type MarkNotificationsReadRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type UnreadCountsResponse struct {
	Badge  int            `json:"badge"`
	Counts map[string]int `json:"counts"`
}
