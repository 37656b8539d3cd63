package httpdto

// SendMessageRequest is used for POST /conversations/:id/messages.
// Attachments reference blobs already uploaded via POST /uploads.
type SendMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

type AttachmentRequest struct {
	StorageKey string `json:"storage_key" binding:"required"`
	FileURL    string `json:"file_url" binding:"required"`
	FileName   string `json:"file_name" binding:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type MarkReadManyRequest struct {
	MessageIDs []string `json:"message_ids" binding:"required"`
}

type MessageDTO struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	SenderID       string          `json:"sender_id"`
	RecipientID    string          `json:"recipient_id"`
	Content        string          `json:"content"`
	IsDeleted      bool            `json:"is_deleted"`
	EditedAt       string          `json:"edited_at,omitempty"`
	ReadAt         string          `json:"read_at,omitempty"`
	CreatedAt      string          `json:"created_at"`
	Attachments    []AttachmentDTO `json:"attachments,omitempty"`
}

type AttachmentDTO struct {
	ID       string `json:"id"`
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
}

type ListMessagesResponse struct {
	Messages []MessageDTO `json:"messages"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
