package domain

import "github.com/google/uuid"

type Role string

const (
	// RoleAdmin is the full-access staff role: it may see and join any
	// conversation with a given applicant.
	RoleAdmin Role = "ADMIN"
	// RoleCoordinator is the restricted staff role: it only sees its own
	// conversations.
	RoleCoordinator Role = "COORDINATOR"
	// RoleApplicant is the end-user role.
	RoleApplicant Role = "APPLICANT"
)

func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCoordinator
}

type NotificationKind string

const (
	NotificationKindChat   NotificationKind = "CHAT"
	NotificationKindSystem NotificationKind = "SYSTEM"
)

// DeletedMessageBody replaces the body of a soft-deleted message.
const DeletedMessageBody = "This message has been deleted"

// Identity is the authenticated caller of an operation.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}
