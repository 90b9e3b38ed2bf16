package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"eventms/internal/availability"
	eventserrors "eventms/internal/events/errors"
	"eventms/internal/events/repository"
	"eventms/internal/events/validator"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	apperrors "eventms/pkg/errors"
	"eventms/pkg/kafka"
	"eventms/pkg/model"
	"eventms/pkg/sanitizer"
)

type EventService interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Event, int64, error)
	Update(ctx context.Context, id string, updates *model.EventUpdate) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, criteria *model.EventSearch, limit int, offset int64) ([]*model.Event, int64, error)
	GetMine(ctx context.Context, limit int, offset int64) ([]*model.Event, error)
	GetMyRegistrations(ctx context.Context, limit int, offset int64) ([]*model.Event, error)
	Register(ctx context.Context, id string) (*model.Event, error)
}

// ReminderScheduler decouples the events service from reminder storage.
type ReminderScheduler interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	DeleteByEvent(ctx context.Context, eventID string) error
}

// InvitationPurger removes an event's invitations when the event goes away.
type InvitationPurger interface {
	DeleteByEvent(ctx context.Context, eventID string) error
}

// Publisher is the subset of the Kafka producer the service needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type eventService struct {
	repo        repository.EventRepository
	lockRepo    repository.VenueLockRepository
	engine      *availability.Engine
	reminders   ReminderScheduler
	invitations InvitationPurger
	publisher   Publisher
	validator   *validator.EventValidator
	cfg         *config.Config
}

func NewEventService(
	repo repository.EventRepository,
	lockRepo repository.VenueLockRepository,
	engine *availability.Engine,
	reminders ReminderScheduler,
	invitations InvitationPurger,
	publisher Publisher,
	validator *validator.EventValidator,
	cfg *config.Config,
) EventService {
	return &eventService{
		repo:        repo,
		lockRepo:    lockRepo,
		engine:      engine,
		reminders:   reminders,
		invitations: invitations,
		publisher:   publisher,
		validator:   validator,
		cfg:         cfg,
	}
}

func (s *eventService) Create(ctx context.Context, event *model.Event) error {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return apperrors.Unauthorized("Authentication required")
	}
	event.ID = ""
	event.CreatedBy = identity.UserID
	event.RegisteredUsers = nil

	s.applyDefaults(event)
	s.sanitize(event)
	if err := s.validate(event); err != nil {
		return err
	}

	if event.VenueID == "" {
		if err := s.repo.Create(ctx, event); err != nil {
			s.cfg.Log.Error("Failed to create event", "error", err)
			return apperrors.Internal("Failed to create event", err)
		}
	} else {
		// Serialize bookings for this venue so two requests cannot both pass
		// the availability check before either commits.
		lockID, err := s.acquireVenueLock(ctx, event.VenueID)
		if err != nil {
			return err
		}
		defer func() {
			if releaseErr := s.releaseVenueLock(ctx, lockID); releaseErr != nil {
				s.cfg.Log.Warn("Failed to release venue lock", "lock_id", lockID, "error", releaseErr)
			}
		}()

		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.verifyVenueAvailable(sessCtx, event); err != nil {
				return err
			}
			if err := s.repo.Create(sessCtx, event); err != nil {
				return apperrors.Internal("Failed to create event", err)
			}
			return nil
		})
		if err != nil {
			s.cfg.Log.Error("Failed to create event", "error", err)
			return err
		}
	}

	s.scheduleReminder(ctx, event, identity.UserID)
	s.publish(ctx, kafka.TypeEventCreated, event)

	s.cfg.Log.Info("Event created successfully",
		"id", event.ID,
		"venue_id", event.VenueID,
		"start_at", event.StartAt,
	)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Event", id)
		}
		if errors.Is(err, eventserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid event ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve event", err)
	}

	return event, nil
}

func (s *eventService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Event, int64, error) {
	var count int64
	var events []*model.Event
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count events", "error", errCount)
			errCount = apperrors.Internal("Failed to count events", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		events, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list events", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve events", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return events, count, nil
}

func (s *eventService) Update(ctx context.Context, id string, updates *model.EventUpdate) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, existing); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Event update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeEventUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validateMerged(merged, updates); err != nil {
		return nil, err
	}

	if merged.VenueID == "" {
		if _, err := s.repo.Update(ctx, id, merged); err != nil {
			s.cfg.Log.Error("Failed to update event", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to update event", err)
		}
	} else {
		lockID, err := s.acquireVenueLock(ctx, merged.VenueID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if releaseErr := s.releaseVenueLock(ctx, lockID); releaseErr != nil {
				s.cfg.Log.Warn("Failed to release venue lock", "lock_id", lockID, "error", releaseErr)
			}
		}()

		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.verifyVenueAvailable(sessCtx, merged); err != nil {
				return err
			}
			if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
				return apperrors.Internal("Failed to update event", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.publish(ctx, kafka.TypeEventUpdated, merged)

	s.cfg.Log.Info("Event updated successfully", "id", id)
	return merged, nil
}

func (s *eventService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Event ID cannot be empty")
	}
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(ctx, existing); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, eventserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Event", id)
		}
		if errors.Is(err, eventserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid event ID format")
		}
		return apperrors.Internal("Failed to delete event", err)
	}

	if s.reminders != nil {
		if err := s.reminders.DeleteByEvent(ctx, id); err != nil {
			s.cfg.Log.Warn("Failed to delete reminders for event", "event_id", id, "error", err)
		}
	}
	if s.invitations != nil {
		if err := s.invitations.DeleteByEvent(ctx, id); err != nil {
			s.cfg.Log.Warn("Failed to delete invitations for event", "event_id", id, "error", err)
		}
	}

	s.cfg.Log.Info("Event deleted successfully", "id", id)
	return nil
}

func (s *eventService) Search(ctx context.Context, criteria *model.EventSearch, limit int, offset int64) ([]*model.Event, int64, error) {
	if criteria == nil {
		criteria = &model.EventSearch{}
	}
	if criteria.MinPrice != nil && criteria.MaxPrice != nil && *criteria.MinPrice > *criteria.MaxPrice {
		return nil, 0, apperrors.InvalidInput("min_price cannot exceed max_price")
	}

	var count int64
	var events []*model.Event
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountSearch(ctx, criteria)
		if err != nil {
			s.cfg.Log.Error("Failed to count events by search", "error", err)
			errCount = apperrors.Internal("Failed to count events", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		events, err = s.repo.Search(ctx, criteria, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search events", "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to search events", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Event search completed", "count", len(events), "total_count", count)
	return events, count, nil
}

func (s *eventService) GetMine(ctx context.Context, limit int, offset int64) ([]*model.Event, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	events, err := s.repo.FindByCreator(ctx, identity.UserID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list own events", "user_id", identity.UserID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve events", err)
	}
	return events, nil
}

func (s *eventService) GetMyRegistrations(ctx context.Context, limit int, offset int64) ([]*model.Event, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	events, err := s.repo.FindByRegisteredUser(ctx, identity.UserID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list registrations", "user_id", identity.UserID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve registrations", err)
	}
	return events, nil
}

func (s *eventService) Register(ctx context.Context, id string) (*model.Event, error) {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	event, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !event.IsActive() {
		return nil, apperrors.Conflict("Event is no longer open for registration")
	}
	if !event.StartAt.After(time.Now()) {
		return nil, apperrors.Conflict("Event has already started")
	}
	for _, uid := range event.RegisteredUsers {
		if uid == identity.UserID {
			return nil, apperrors.Conflict("Already registered for this event")
		}
	}
	if event.MaxAttendees != nil && len(event.RegisteredUsers) >= *event.MaxAttendees {
		return nil, apperrors.Conflict("Event has reached maximum attendees")
	}

	if err := s.repo.AddRegistration(ctx, id, identity.UserID); err != nil {
		if errors.Is(err, eventserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Event", id)
		}
		s.cfg.Log.Error("Failed to register user", "event_id", id, "user_id", identity.UserID, "error", err)
		return nil, apperrors.Internal("Failed to register for event", err)
	}
	event.RegisteredUsers = append(event.RegisteredUsers, identity.UserID)

	s.scheduleReminder(ctx, event, identity.UserID)
	s.publish(ctx, kafka.TypeEventRegistered, event)

	s.cfg.Log.Info("User registered for event", "event_id", id, "user_id", identity.UserID)
	return event, nil
}

// --- Helpers ---

func (s *eventService) sanitize(e *model.Event) {
	e.Title = sanitizer.TrimAndNormalize(e.Title)
	e.Description = sanitizer.TrimAndNormalize(e.Description)
	e.Location = sanitizer.NormalizeLocation(e.Location)
	e.Category = sanitizer.NormalizeCategory(e.Category)
	e.Guests = sanitizer.NormalizeStrings(e.Guests)
}

func (s *eventService) applyDefaults(e *model.Event) {
	if e.Status == "" {
		e.Status = model.EventStatusDraft
	}
	if e.IsPaid && e.Currency == "" {
		e.Currency = "INR"
	}
}

func (s *eventService) mergeEventUpdates(existing *model.Event, updates *model.EventUpdate) *model.Event {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.StartAt != nil {
		merged.StartAt = *updates.StartAt
	}
	if updates.EndAt != nil {
		merged.EndAt = updates.EndAt
	}
	if updates.Timezone != "" {
		merged.Timezone = updates.Timezone
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}
	if updates.VenueID != nil {
		merged.VenueID = *updates.VenueID
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}
	if updates.Guests != nil {
		merged.Guests = updates.Guests
	}
	if updates.Category != nil {
		merged.Category = *updates.Category
	}
	if updates.MaxAttendees != nil {
		merged.MaxAttendees = updates.MaxAttendees
	}

	return &merged
}

func (s *eventService) validate(event *model.Event) error {
	if err := s.validator.Validate(event); err != nil {
		s.cfg.Log.Warn("Event validation failed", "error", err)
		return apperrors.Validation("Event validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// validateMerged skips the past-start check so events already underway can
// still be edited, as long as the edit does not move start_at.
func (s *eventService) validateMerged(event *model.Event, updates *model.EventUpdate) error {
	err := s.validator.Validate(event)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) == 1 && verrs[0].Field == "StartAt" && updates.StartAt == nil {
		return nil
	}
	s.cfg.Log.Warn("Event validation failed", "error", err)
	return apperrors.Validation("Event validation failed", map[string]any{"error": err.Error()})
}

func (s *eventService) authorizeOwner(ctx context.Context, event *model.Event) error {
	identity, ok := auth.FromContext(ctx)
	if !ok {
		return apperrors.Unauthorized("Authentication required")
	}
	if identity.Role == auth.RoleAdmin || identity.UserID == event.CreatedBy {
		return nil
	}
	return apperrors.Forbidden("Only the event creator can modify this event")
}

// verifyVenueAvailable runs the availability check inside the caller's
// transaction. A detected conflict is a normal business outcome reported as
// 409, never an internal error.
func (s *eventService) verifyVenueAvailable(ctx context.Context, event *model.Event) error {
	end := event.EndAt
	if end == nil {
		e := event.StartAt.Add(s.engine.DefaultDuration())
		end = &e
	}
	candidates, err := s.repo.FindActiveByVenue(ctx, event.VenueID, &event.StartAt, end)
	if err != nil {
		return apperrors.Internal("Failed to check venue availability", err)
	}

	bookings := make([]availability.Booking, 0, len(candidates))
	for _, c := range candidates {
		bookings = append(bookings, availability.BookingFromEvent(c))
	}

	result, err := s.engine.CheckBooking(availability.BookingFromEvent(event), bookings)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidInterval) {
			return apperrors.InvalidInput(err.Error())
		}
		return apperrors.Internal("Failed to check venue availability", err)
	}
	if !result.Available {
		c := result.Conflict
		conflictEnd := "open-ended"
		if c.End != nil {
			conflictEnd = c.End.Format(time.RFC3339)
		}
		return apperrors.ConflictWithDetails(
			fmt.Sprintf("Venue is already booked from %s to %s", c.Start.Format(time.RFC3339), conflictEnd),
			map[string]any{
				"conflicting_event_id": c.EventID,
				"title":                c.Title,
				"start_at":             c.Start,
				"end_at":               c.End,
			},
		)
	}
	return nil
}

// acquireVenueLock creates an advisory lock preventing concurrent bookings
// of the same venue. Returns conflict error if the lock is already held.
func (s *eventService) acquireVenueLock(ctx context.Context, venueID string) (string, error) {
	lockID := fmt.Sprintf("venue_lock_%s", venueID)

	lock := &model.VenueLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.VenueLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This venue is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire venue lock", err)
	}

	return lockID, nil
}

func (s *eventService) releaseVenueLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// scheduleReminder stores a reminder due ahead of the event start. Failures
// are logged, not surfaced; reminders are best-effort.
func (s *eventService) scheduleReminder(ctx context.Context, event *model.Event, recipient string) {
	if s.reminders == nil {
		return
	}
	sendAt := event.StartAt.Add(-s.cfg.ReminderLead)
	if sendAt.Before(time.Now()) {
		return
	}

	reminder := &model.Reminder{
		EventID:   event.ID,
		Recipient: recipient,
		SendAt:    sendAt,
		Status:    model.ReminderStatusScheduled,
	}
	if err := s.reminders.Create(ctx, reminder); err != nil {
		s.cfg.Log.Warn("Failed to schedule reminder", "event_id", event.ID, "recipient", recipient, "error", err)
	}
}

// publish emits a domain notification. Delivery failures never fail the
// request.
func (s *eventService) publish(ctx context.Context, messageType string, event *model.Event) {
	if s.publisher == nil {
		return
	}
	msg := kafka.NewMessage().
		WithKey(event.ID).
		WithValue(event).
		WithType(messageType).
		WithSource("eventms").
		Build()
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish notification", "type", messageType, "event_id", event.ID, "error", err)
	}
}
