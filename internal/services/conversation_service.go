package services

import (
	"context"
	"errors"
	"time"

	"scholarline/internal/domain"
	"scholarline/internal/repository"
	"scholarline/pkg/logger"
	scholarline_errors "scholarline/pkg/errors"

	"github.com/google/uuid"
)

// ConversationService resolves and lists conversations. Resolve is the
// find-or-create entry point: repeated calls with the same logical pair
// converge on one conversation id.
type ConversationService struct {
	repo  repository.ConversationRepository
	users repository.UserRepository
	log   *logger.Logger
}

func NewConversationService(repo repository.ConversationRepository, users repository.UserRepository, log *logger.Logger) *ConversationService {
	return &ConversationService{repo: repo, users: users, log: log}
}

// Resolve returns the conversation for the requester and counterparty,
// creating it when absent.
//
// An explicit conversation id short-circuits the lookup. An applicant with
// no counterparty gets the default staff member (admin first, coordinator as
// fallback). Staff lookups respect role visibility: an admin may pick up any
// existing thread with the applicant, a coordinator only its own.
func (s *ConversationService) Resolve(ctx context.Context, requester domain.Identity, counterpartyID, explicitID uuid.UUID) (domain.Conversation, error) {
	if explicitID != uuid.Nil {
		conv, err := s.repo.GetByID(ctx, explicitID)
		if err != nil {
			return domain.Conversation{}, err
		}
		if !conv.HasParty(requester.UserID) && requester.Role != domain.RoleAdmin {
			return domain.Conversation{}, scholarline_errors.ErrPermissionDenied
		}
		return conv, nil
	}

	var staffID, applicantID uuid.UUID
	switch {
	case requester.Role == domain.RoleApplicant:
		applicantID = requester.UserID
		if counterpartyID != uuid.Nil {
			staffID = counterpartyID
		} else {
			staff, err := s.defaultStaff(ctx)
			if err != nil {
				return domain.Conversation{}, err
			}
			staffID = staff.ID
		}
	case requester.Role.IsStaff():
		if counterpartyID == uuid.Nil {
			return domain.Conversation{}, scholarline_errors.ErrInvalidInput
		}
		staffID = requester.UserID
		applicantID = counterpartyID

		if requester.Role == domain.RoleAdmin {
			// Full access: reuse the most recent thread with this applicant
			// regardless of which staff member owns it.
			conv, err := s.repo.FindByApplicant(ctx, applicantID)
			if err == nil {
				return conv, nil
			}
			if !errors.Is(err, scholarline_errors.ErrNotFound) {
				return domain.Conversation{}, err
			}
		}
	default:
		return domain.Conversation{}, scholarline_errors.ErrPermissionDenied
	}

	conv, err := s.repo.FindByPair(ctx, staffID, applicantID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, scholarline_errors.ErrNotFound) {
		return domain.Conversation{}, err
	}

	now := time.Now()
	created := domain.Conversation{
		ID:            uuid.New(),
		StaffID:       staffID,
		ApplicantID:   applicantID,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	if err := s.repo.Create(ctx, &created); err != nil {
		if errors.Is(err, scholarline_errors.ErrAlreadyExists) {
			// Lost the first-contact race; the unique pair index kept one
			// winner, adopt it.
			return s.repo.FindByPair(ctx, staffID, applicantID)
		}
		return domain.Conversation{}, err
	}
	return created, nil
}

// List returns the requester's inbox ordered by last activity.
func (s *ConversationService) List(ctx context.Context, requester domain.Identity) ([]domain.Conversation, error) {
	if requester.Role == domain.RoleApplicant {
		return s.repo.ListForApplicant(ctx, requester.UserID)
	}
	return s.repo.ListForStaff(ctx, requester.UserID, requester.Role)
}

func (s *ConversationService) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ConversationService) defaultStaff(ctx context.Context) (domain.User, error) {
	staff, err := s.users.FirstByRole(ctx, domain.RoleAdmin)
	if err == nil {
		return staff, nil
	}
	if !errors.Is(err, scholarline_errors.ErrNotFound) {
		return domain.User{}, err
	}
	staff, err = s.users.FirstByRole(ctx, domain.RoleCoordinator)
	if err == nil {
		return staff, nil
	}
	if errors.Is(err, scholarline_errors.ErrNotFound) {
		return domain.User{}, scholarline_errors.ErrNoStaffAvailable
	}
	return domain.User{}, err
}
