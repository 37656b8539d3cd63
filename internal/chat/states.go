package chat

import (
	"scholarline/internal/domain"

	"github.com/google/uuid"
)

// State tags a local message entry. Pending entries exist only on this
// client; Confirmed ones mirror a server row; Failed ones record a send
// that did not land and stay visible for retry.
type State int

const (
	StatePending State = iota
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one locally-displayed message. LocalID is the client-generated
// correlation id; it never changes, so reconciliation can match a server
// confirmation back to the optimistic entry it settles.
type Entry struct {
	LocalID uuid.UUID
	State   State
	Message domain.Message
	Err     string
}
