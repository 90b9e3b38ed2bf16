package service

import (
	"context"
	"testing"
	"time"

	invitationserrors "eventms/internal/invitations/errors"
	"eventms/internal/invitations/validator"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	apperrors "eventms/pkg/errors"
	"eventms/pkg/kafka"
	"eventms/pkg/logger"
	"eventms/pkg/model"
)

const (
	testUserID  = "665f1b2e8f1a4c0012346001"
	testOtherID = "665f1b2e8f1a4c0012346002"
	testAdminID = "665f1b2e8f1a4c0012346003"
	testEventID = "665f1b2e8f1a4c0012346200"
)

type mockInvitationRepo struct {
	createManyFn  func(ctx context.Context, invitations []*model.Invitation) error
	findByEventFn func(ctx context.Context, eventID string) ([]*model.Invitation, error)
	findByTokenFn func(ctx context.Context, token string) (*model.Invitation, error)
	setResponseFn func(ctx context.Context, id string, status string, respondedAt time.Time) error
}

func (m *mockInvitationRepo) CreateMany(ctx context.Context, invitations []*model.Invitation) error {
	if m.createManyFn != nil {
		return m.createManyFn(ctx, invitations)
	}
	return nil
}

func (m *mockInvitationRepo) FindByEvent(ctx context.Context, eventID string) ([]*model.Invitation, error) {
	if m.findByEventFn != nil {
		return m.findByEventFn(ctx, eventID)
	}
	return nil, nil
}

func (m *mockInvitationRepo) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	if m.findByTokenFn != nil {
		return m.findByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockInvitationRepo) SetResponse(ctx context.Context, id string, status string, respondedAt time.Time) error {
	if m.setResponseFn != nil {
		return m.setResponseFn(ctx, id, status, respondedAt)
	}
	return nil
}

func (m *mockInvitationRepo) DeleteByEvent(ctx context.Context, eventID string) error {
	return nil
}

type mockEventSource struct {
	getByIDFn func(ctx context.Context, id string) (*model.Event, error)
}

func (m *mockEventSource) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, apperrors.NotFoundWithID("Event", id)
}

type mockPublisher struct {
	published []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: "error"}),
	}
}

func newTestService(repo *mockInvitationRepo, events *mockEventSource, publisher *mockPublisher) InvitationService {
	cfg := testConfig()
	return NewInvitationService(repo, events, publisher, validator.NewInvitationValidator(cfg.Log), cfg)
}

func organizerContext() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: testUserID, Role: auth.RoleUser})
}

func ownedEvent() *model.Event {
	start := time.Now().Add(24 * time.Hour)
	return &model.Event{
		ID:        testEventID,
		Title:     "Team Offsite",
		StartAt:   start,
		Status:    model.EventStatusPublished,
		CreatedBy: testUserID,
	}
}

func TestCreate_TokenPerEmail(t *testing.T) {
	var stored []*model.Invitation
	repo := &mockInvitationRepo{
		createManyFn: func(ctx context.Context, invitations []*model.Invitation) error {
			stored = invitations
			return nil
		},
	}
	events := &mockEventSource{
		getByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return ownedEvent(), nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, events, publisher)

	invitations, err := svc.Create(organizerContext(), testEventID, []string{"a@example.com", "b@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(invitations) != 2 || len(stored) != 2 {
		t.Fatalf("expected 2 invitations, got %d returned, %d stored", len(invitations), len(stored))
	}
	if invitations[0].Token == "" || invitations[0].Token == invitations[1].Token {
		t.Errorf("each invitation must carry a distinct token, got %q and %q", invitations[0].Token, invitations[1].Token)
	}
	for _, inv := range invitations {
		if inv.Status != model.InvitationStatusPending {
			t.Errorf("Status = %q, want %q", inv.Status, model.InvitationStatusPending)
		}
		if inv.SentAt.IsZero() {
			t.Error("SentAt must be stamped")
		}
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(publisher.published))
	}
	if got := publisher.published[0].Headers[kafka.HeaderMessageType]; got != kafka.TypeInvitationCreated {
		t.Errorf("message type = %q, want %q", got, kafka.TypeInvitationCreated)
	}
}

func TestCreate_NotOrganizerRejected(t *testing.T) {
	events := &mockEventSource{
		getByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			e := ownedEvent()
			e.CreatedBy = testOtherID
			return e, nil
		},
	}
	svc := newTestService(&mockInvitationRepo{}, events, &mockPublisher{})

	_, err := svc.Create(organizerContext(), testEventID, []string{"a@example.com"})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreate_InvalidEmails(t *testing.T) {
	svc := newTestService(&mockInvitationRepo{}, &mockEventSource{}, &mockPublisher{})

	tests := []struct {
		name   string
		emails []string
	}{
		{"empty list", nil},
		{"malformed address", []string{"not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(organizerContext(), testEventID, tt.emails)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != apperrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGetByEvent_OrganizerOnly(t *testing.T) {
	events := &mockEventSource{
		getByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return ownedEvent(), nil
		},
	}
	repo := &mockInvitationRepo{
		findByEventFn: func(ctx context.Context, eventID string) ([]*model.Invitation, error) {
			return []*model.Invitation{{EventID: eventID, Email: "a@example.com"}}, nil
		},
	}
	svc := newTestService(repo, events, &mockPublisher{})

	otherCtx := auth.WithIdentity(context.Background(), auth.Identity{UserID: testOtherID, Role: auth.RoleUser})
	_, err := svc.GetByEvent(otherCtx, testEventID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-organizer, got %v", err)
	}

	invitations, err := svc.GetByEvent(organizerContext(), testEventID)
	if err != nil {
		t.Fatalf("GetByEvent() error = %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("expected 1 invitation, got %d", len(invitations))
	}

	adminCtx := auth.WithIdentity(context.Background(), auth.Identity{UserID: testAdminID, Role: auth.RoleAdmin})
	if _, err := svc.GetByEvent(adminCtx, testEventID); err != nil {
		t.Fatalf("admin must be allowed to list invitations, got %v", err)
	}
}

func TestRespond(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		wantStatus string
	}{
		{"accept", model.InvitationActionAccept, model.InvitationStatusAccepted},
		{"decline", model.InvitationActionDecline, model.InvitationStatusDeclined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotStatus string
			repo := &mockInvitationRepo{
				findByTokenFn: func(ctx context.Context, token string) (*model.Invitation, error) {
					return &model.Invitation{
						ID:      "665f1b2e8f1a4c0012346300",
						EventID: testEventID,
						Email:   "a@example.com",
						Token:   token,
						Status:  model.InvitationStatusPending,
					}, nil
				},
				setResponseFn: func(ctx context.Context, id string, status string, respondedAt time.Time) error {
					gotStatus = status
					return nil
				},
			}
			svc := newTestService(repo, &mockEventSource{}, &mockPublisher{})

			// No identity in context: the token is the credential.
			invitation, err := svc.Respond(context.Background(), "some-token", tt.action)
			if err != nil {
				t.Fatalf("Respond() error = %v", err)
			}
			if gotStatus != tt.wantStatus || invitation.Status != tt.wantStatus {
				t.Errorf("status = %q (stored %q), want %q", invitation.Status, gotStatus, tt.wantStatus)
			}
			if invitation.RespondedAt == nil {
				t.Error("RespondedAt must be stamped")
			}
		})
	}
}

func TestRespond_InvalidAction(t *testing.T) {
	svc := newTestService(&mockInvitationRepo{}, &mockEventSource{}, &mockPublisher{})

	_, err := svc.Respond(context.Background(), "some-token", "maybe")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRespond_UnknownToken(t *testing.T) {
	repo := &mockInvitationRepo{
		findByTokenFn: func(ctx context.Context, token string) (*model.Invitation, error) {
			return nil, invitationserrors.ErrNotFound
		},
	}
	svc := newTestService(repo, &mockEventSource{}, &mockPublisher{})

	_, err := svc.Respond(context.Background(), "unknown-token", model.InvitationActionAccept)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
