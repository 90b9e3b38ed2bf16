package service

import (
	"context"
	"testing"
	"time"

	paymentserrors "eventms/internal/payments/errors"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	apperrors "eventms/pkg/errors"
	"eventms/pkg/logger"
	"eventms/pkg/model"
)

const (
	testUserID  = "665f1b2e8f1a4c0012345001"
	testOtherID = "665f1b2e8f1a4c0012345003"
	testEventID = "665f1b2e8f1a4c0012345200"
	testPayID   = "665f1b2e8f1a4c0012345300"
)

type mockPaymentRepo struct {
	createFn             func(ctx context.Context, payment *model.Payment) error
	findByIDFn           func(ctx context.Context, id string) (*model.Payment, error)
	findByEventAndUserFn func(ctx context.Context, eventID, userID string) (*model.Payment, error)
	updateStatusFn       func(ctx context.Context, id, status, transactionID string, paidAt *time.Time) error
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	if m.createFn != nil {
		return m.createFn(ctx, payment)
	}
	payment.ID = testPayID
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, paymentserrors.ErrNotFound
}

func (m *mockPaymentRepo) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Payment, error) {
	return nil, nil
}

func (m *mockPaymentRepo) FindByEvent(ctx context.Context, eventID string, limit int, offset int64) ([]*model.Payment, error) {
	return nil, nil
}

func (m *mockPaymentRepo) FindByEventAndUser(ctx context.Context, eventID, userID string) (*model.Payment, error) {
	if m.findByEventAndUserFn != nil {
		return m.findByEventAndUserFn(ctx, eventID, userID)
	}
	return nil, paymentserrors.ErrNotFound
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, id, status, transactionID string, paidAt *time.Time) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, transactionID, paidAt)
	}
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

func newTestService(repo *mockPaymentRepo, events *mockEventSource) PaymentService {
	cfg := &config.Config{Log: logger.New(logger.Config{Level: "error"})}
	return NewPaymentService(repo, events, cfg)
}

func userContext() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: testUserID, Role: auth.RoleUser})
}

func paidEvent() *model.Event {
	return &model.Event{
		ID:       testEventID,
		Title:    "Conference",
		StartAt:  time.Now().Add(48 * time.Hour),
		Status:   model.EventStatusPublished,
		IsPaid:   true,
		Price:    499.0,
		Currency: "INR",
	}
}

func TestCreate_AmountFromEvent(t *testing.T) {
	events := &mockEventSource{
		getByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return paidEvent(), nil
		},
	}
	svc := newTestService(&mockPaymentRepo{}, events)

	// The client-supplied amount must be ignored.
	payment := &model.Payment{EventID: testEventID, Amount: 1.0, Method: model.PaymentMethodGPay}
	if err := svc.Create(userContext(), payment); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if payment.Amount != 499.0 {
		t.Errorf("Amount = %v, want 499.0 (taken from event)", payment.Amount)
	}
	if payment.Currency != "INR" {
		t.Errorf("Currency = %q, want INR", payment.Currency)
	}
	if payment.Status != model.PaymentStatusPending {
		t.Errorf("Status = %q, want pending", payment.Status)
	}
	if payment.UserID != testUserID {
		t.Errorf("UserID = %q, want %q", payment.UserID, testUserID)
	}
}

func TestCreate_FreeEventRejected(t *testing.T) {
	events := &mockEventSource{
		getByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			e := paidEvent()
			e.IsPaid = false
			return e, nil
		},
	}
	svc := newTestService(&mockPaymentRepo{}, events)

	err := svc.Create(userContext(), &model.Payment{EventID: testEventID})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input for free event, got %v", err)
	}
}

func TestCreate_DuplicateRejected(t *testing.T) {
	events := &mockEventSource{
		getByIDFn: func(ctx context.Context, id string) (*model.Event, error) {
			return paidEvent(), nil
		},
	}
	repo := &mockPaymentRepo{
		findByEventAndUserFn: func(ctx context.Context, eventID, userID string) (*model.Payment, error) {
			return &model.Payment{ID: testPayID, Status: model.PaymentStatusCompleted}, nil
		},
	}
	svc := newTestService(repo, events)

	err := svc.Create(userContext(), &model.Payment{EventID: testEventID})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict for duplicate payment, got %v", err)
	}
}

func TestConfirm(t *testing.T) {
	repo := &mockPaymentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Payment, error) {
			return &model.Payment{ID: id, UserID: testUserID, Status: model.PaymentStatusPending}, nil
		},
	}
	svc := newTestService(repo, &mockEventSource{})

	payment, err := svc.Confirm(userContext(), testPayID)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if payment.Status != model.PaymentStatusCompleted {
		t.Errorf("Status = %q, want completed", payment.Status)
	}
	if payment.TransactionID == "" {
		t.Error("expected a transaction id")
	}
	if payment.PaidAt == nil {
		t.Error("expected paid_at to be set")
	}
}

func TestConfirm_AlreadyCompleted(t *testing.T) {
	repo := &mockPaymentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Payment, error) {
			return &model.Payment{ID: id, UserID: testUserID, Status: model.PaymentStatusCompleted}, nil
		},
	}
	svc := newTestService(repo, &mockEventSource{})

	_, err := svc.Confirm(userContext(), testPayID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestConfirm_NotPayer(t *testing.T) {
	repo := &mockPaymentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Payment, error) {
			return &model.Payment{ID: id, UserID: testOtherID, Status: model.PaymentStatusPending}, nil
		},
	}
	svc := newTestService(repo, &mockEventSource{})

	_, err := svc.Confirm(userContext(), testPayID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
