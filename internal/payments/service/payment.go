package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	paymentserrors "eventms/internal/payments/errors"
	"eventms/internal/payments/repository"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	apperrors "eventms/pkg/errors"
	"eventms/pkg/model"
)

// EventSource resolves events for payment initiation. Satisfied by the events
// service, which already maps storage errors to API errors.
type EventSource interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

type PaymentService interface {
	Create(ctx context.Context, payment *model.Payment) error
	Confirm(ctx context.Context, id string) (*model.Payment, error)
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetMine(ctx context.Context, limit int, offset int64) ([]*model.Payment, error)
	GetByEvent(ctx context.Context, eventID string, limit int, offset int64) ([]*model.Payment, error)
}

type paymentService struct {
	repo   repository.PaymentRepository
	events EventSource
	cfg    *config.Config
}

func NewPaymentService(repo repository.PaymentRepository, events EventSource, cfg *config.Config) PaymentService {
	return &paymentService{
		repo:   repo,
		events: events,
		cfg:    cfg,
	}
}

// Create opens a pending payment for a paid event. The amount and currency
// come from the event, never from the request.
func (s *paymentService) Create(ctx context.Context, payment *model.Payment) error {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return apperrors.Unauthorized("Authentication required")
	}
	if payment.EventID == "" {
		return apperrors.InvalidInput("Event ID is required")
	}

	event, err := s.events.GetByID(ctx, payment.EventID)
	if err != nil {
		return err
	}
	if !event.IsPaid {
		return apperrors.InvalidInput("Event is free, no payment required")
	}
	if !event.IsActive() {
		return apperrors.Conflict("Event is no longer open for payments")
	}

	if existing, err := s.repo.FindByEventAndUser(ctx, payment.EventID, identity.UserID); err == nil {
		if existing.Status == model.PaymentStatusCompleted {
			return apperrors.Conflict("Payment for this event is already completed")
		}
		return apperrors.Conflict("A payment for this event is already pending")
	} else if !errors.Is(err, paymentserrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to check existing payment", "event_id", payment.EventID, "error", err)
		return apperrors.Internal("Failed to check existing payment", err)
	}

	payment.ID = ""
	payment.UserID = identity.UserID
	payment.Amount = event.Price
	payment.Currency = event.Currency
	payment.Status = model.PaymentStatusPending
	payment.TransactionID = ""
	payment.PaidAt = nil

	if err := s.repo.Create(ctx, payment); err != nil {
		s.cfg.Log.Error("Failed to create payment", "event_id", payment.EventID, "error", err)
		return apperrors.Internal("Failed to create payment", err)
	}

	s.cfg.Log.Info("Payment created", "id", payment.ID, "event_id", payment.EventID, "amount", payment.Amount)
	return nil
}

// Confirm marks a pending payment completed and stamps the transaction.
func (s *paymentService) Confirm(ctx context.Context, id string) (*model.Payment, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	payment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.UserID != identity.UserID && identity.Role != auth.RoleAdmin {
		return nil, apperrors.Forbidden("Only the payer can confirm this payment")
	}
	if payment.Status == model.PaymentStatusCompleted {
		return nil, apperrors.Conflict("Payment is already completed")
	}

	paidAt := time.Now().UTC().Truncate(time.Millisecond)
	transactionID := uuid.New().String()

	if err := s.repo.UpdateStatus(ctx, id, model.PaymentStatusCompleted, transactionID, &paidAt); err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Payment", id)
		}
		s.cfg.Log.Error("Failed to confirm payment", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to confirm payment", err)
	}

	payment.Status = model.PaymentStatusCompleted
	payment.TransactionID = transactionID
	payment.PaidAt = &paidAt

	s.cfg.Log.Info("Payment confirmed", "id", id, "transaction_id", transactionID)
	return payment, nil
}

func (s *paymentService) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Payment ID cannot be empty")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Payment", id)
		}
		if errors.Is(err, paymentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid payment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve payment", err)
	}

	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if payment.UserID != identity.UserID && identity.Role != auth.RoleAdmin {
		return nil, apperrors.Forbidden("Access denied")
	}

	return payment, nil
}

func (s *paymentService) GetMine(ctx context.Context, limit int, offset int64) ([]*model.Payment, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	payments, err := s.repo.FindByUser(ctx, identity.UserID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list payments", "user_id", identity.UserID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve payments", err)
	}
	return payments, nil
}

func (s *paymentService) GetByEvent(ctx context.Context, eventID string, limit int, offset int64) ([]*model.Payment, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if eventID == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	payments, err := s.repo.FindByEvent(ctx, eventID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list payments by event", "event_id", eventID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve payments", err)
	}
	return payments, nil
}
