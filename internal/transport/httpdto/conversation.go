package httpdto

// ResolveConversationRequest is used for POST /conversations/resolve.
// ConversationID short-circuits the lookup; otherwise CounterpartyID names
// the other side of the pair (empty for an applicant, who gets the default
// staff member).
type ResolveConversationRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	CounterpartyID string `json:"counterparty_id,omitempty"`
}

type ConversationDTO struct {
	ID            string `json:"id"`
	StaffID       string `json:"staff_id"`
	ApplicantID   string `json:"applicant_id"`
	LastMessageAt string `json:"last_message_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type ListConversationsResponse struct {
	Conversations []ConversationDTO `json:"conversations"`
}
