package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	invitationserrors "eventms/internal/invitations/errors"
	"eventms/internal/invitations/repository"
	"eventms/internal/invitations/validator"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	apperrors "eventms/pkg/errors"
	"eventms/pkg/kafka"
	"eventms/pkg/model"
)

// EventSource resolves events for invitation creation. Satisfied by the
// events service, which already maps storage errors to API errors.
type EventSource interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// Publisher is the subset of the Kafka producer the service needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type InvitationService interface {
	Create(ctx context.Context, eventID string, emails []string) ([]*model.Invitation, error)
	GetByEvent(ctx context.Context, eventID string) ([]*model.Invitation, error)
	Respond(ctx context.Context, token string, action string) (*model.Invitation, error)
}

type invitationService struct {
	repo      repository.InvitationRepository
	events    EventSource
	publisher Publisher
	validator *validator.InvitationValidator
	cfg       *config.Config
}

func NewInvitationService(
	repo repository.InvitationRepository,
	events EventSource,
	publisher Publisher,
	validator *validator.InvitationValidator,
	cfg *config.Config,
) InvitationService {
	return &invitationService{
		repo:      repo,
		events:    events,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
	}
}

// Create records one invitation per email for an event the caller organizes.
// Each record carries a fresh RSVP token; delivering the email belongs to the
// notification service consuming the published messages.
func (s *invitationService) Create(ctx context.Context, eventID string, emails []string) ([]*model.Invitation, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if eventID == "" {
		return nil, apperrors.InvalidInput("Event ID is required")
	}
	if err := s.validator.ValidateEmails(emails); err != nil {
		s.cfg.Log.Warn("Invitation validation failed", "event_id", eventID, "error", err)
		return nil, apperrors.Validation("Invalid invitation input", map[string]any{"error": err.Error()})
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != identity.UserID && identity.Role != auth.RoleAdmin {
		return nil, apperrors.Forbidden("Only the event creator can send invitations")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	invitations := make([]*model.Invitation, 0, len(emails))
	for _, email := range emails {
		invitations = append(invitations, &model.Invitation{
			EventID: eventID,
			Email:   email,
			Token:   uuid.New().String(),
			Status:  model.InvitationStatusPending,
			SentAt:  now,
		})
	}

	if err := s.repo.CreateMany(ctx, invitations); err != nil {
		s.cfg.Log.Error("Failed to create invitations", "event_id", eventID, "error", err)
		return nil, apperrors.Internal("Failed to create invitations", err)
	}

	for _, inv := range invitations {
		s.publishCreated(ctx, inv)
	}

	s.cfg.Log.Info("Invitations created", "event_id", eventID, "count", len(invitations))
	return invitations, nil
}

// GetByEvent lists an event's invitations for its organizer.
func (s *invitationService) GetByEvent(ctx context.Context, eventID string) ([]*model.Invitation, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if eventID == "" {
		return nil, apperrors.InvalidInput("Event ID is required")
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != identity.UserID && identity.Role != auth.RoleAdmin {
		return nil, apperrors.Forbidden("Only the event creator can view invitations")
	}

	invitations, err := s.repo.FindByEvent(ctx, eventID)
	if err != nil {
		s.cfg.Log.Error("Failed to list invitations", "event_id", eventID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve invitations", err)
	}
	return invitations, nil
}

// Respond records an accept or decline against the invitation's token. The
// token is the sole credential; invitees have no account.
func (s *invitationService) Respond(ctx context.Context, token string, action string) (*model.Invitation, error) {
	if token == "" {
		return nil, apperrors.InvalidInput("Invitation token is required")
	}
	if err := s.validator.ValidateAction(action); err != nil {
		return nil, apperrors.Validation("Invalid invitation response", map[string]any{"error": err.Error()})
	}

	invitation, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	status := model.InvitationStatusAccepted
	if action == model.InvitationActionDecline {
		status = model.InvitationStatusDeclined
	}
	respondedAt := time.Now().UTC().Truncate(time.Millisecond)

	if err := s.repo.SetResponse(ctx, invitation.ID, status, respondedAt); err != nil {
		s.cfg.Log.Error("Failed to record invitation response", "id", invitation.ID, "error", err)
		return nil, apperrors.Internal("Failed to record invitation response", err)
	}

	invitation.Status = status
	invitation.RespondedAt = &respondedAt

	s.cfg.Log.Info("Invitation response recorded", "id", invitation.ID, "status", status)
	return invitation, nil
}

func (s *invitationService) findByToken(ctx context.Context, token string) (*model.Invitation, error) {
	invitation, err := s.repo.FindByToken(ctx, token)
	if err == nil {
		return invitation, nil
	}
	if errors.Is(err, invitationserrors.ErrNotFound) {
		return nil, apperrors.NotFound("Invitation")
	}
	s.cfg.Log.Error("Failed to find invitation", "error", err)
	return nil, apperrors.Internal("Failed to find invitation", err)
}

// Delivery failures must not fail the create; the records already exist.
func (s *invitationService) publishCreated(ctx context.Context, invitation *model.Invitation) {
	if s.publisher == nil {
		return
	}
	msg := kafka.NewMessage().
		WithKey(invitation.EventID).
		WithValue(invitation).
		WithType(kafka.TypeInvitationCreated).
		WithSource("eventms").
		Build()
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish invitation message", "id", invitation.ID, "error", err)
	}
}
