package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"eventms/internal/availability"
	venueserrors "eventms/internal/venues/errors"
	"eventms/internal/venues/repository"
	"eventms/internal/venues/validator"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	apperrors "eventms/pkg/errors"
	"eventms/pkg/model"
	"eventms/pkg/sanitizer"
)

// BookingSource supplies the active events occupying venues. Satisfied by the
// events repository.
type BookingSource interface {
	FindActiveByVenues(ctx context.Context, venueIDs []string, start *time.Time, end *time.Time) ([]*model.Event, error)
}

// Reasons an availability check can come back negative.
const (
	ReasonVenueUnavailable = "venue_unavailable"
	ReasonTimeConflict     = "time_conflict"
)

// AvailabilityReport is the response of an explicit availability check.
type AvailabilityReport struct {
	Available bool                   `json:"available"`
	Reason    string                 `json:"reason,omitempty"`
	Conflicts []availability.Booking `json:"conflicts,omitempty"`
}

type VenueService interface {
	Create(ctx context.Context, venue *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	GetAll(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error)
	Update(ctx context.Context, id string, updates *model.VenueUpdate) (*model.Venue, error)
	Delete(ctx context.Context, id string) error
	Available(ctx context.Context, requested *availability.Interval, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error)
	CheckAvailability(ctx context.Context, venueID string, requested availability.Interval, excludeEventID string) (*AvailabilityReport, error)
	StatsOverview(ctx context.Context) (*model.VenueStats, error)
}

type venueService struct {
	repo      repository.VenueRepository
	bookings  BookingSource
	engine    *availability.Engine
	validator *validator.VenueValidator
	cfg       *config.Config
}

func NewVenueService(
	repo repository.VenueRepository,
	bookings BookingSource,
	engine *availability.Engine,
	validator *validator.VenueValidator,
	cfg *config.Config,
) VenueService {
	return &venueService{
		repo:      repo,
		bookings:  bookings,
		engine:    engine,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *venueService) Create(ctx context.Context, venue *model.Venue) error {
	identity, err := auth.RequireAdmin(ctx)
	if err != nil {
		return err
	}
	venue.ID = ""
	venue.CreatedBy = identity.UserID
	venue.IsAvailable = true

	s.sanitize(venue)
	if err := s.validate(venue); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		s.cfg.Log.Error("Failed to create venue", "error", err)
		return apperrors.Internal("Failed to create venue", err)
	}

	s.cfg.Log.Info("Venue created successfully", "id", venue.ID, "name", venue.Name)
	return nil
}

func (s *venueService) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid venue ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve venue", err)
	}

	return venue, nil
}

func (s *venueService) GetAll(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error) {
	var count int64
	var venues []*model.Venue
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count venues", "error", errCount)
			errCount = apperrors.Internal("Failed to count venues", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		venues, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list venues", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve venues", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return venues, count, nil
}

func (s *venueService) Update(ctx context.Context, id string, updates *model.VenueUpdate) (*model.Venue, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Venue update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeVenueUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		s.cfg.Log.Error("Failed to update venue", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update venue", err)
	}

	s.cfg.Log.Info("Venue updated successfully", "id", id)
	return merged, nil
}

func (s *venueService) Delete(ctx context.Context, id string) error {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return err
	}
	if id == "" {
		return apperrors.InvalidInput("Venue ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Venue", id)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid venue ID format")
		}
		return apperrors.Internal("Failed to delete venue", err)
	}

	s.cfg.Log.Info("Venue deleted successfully", "id", id)
	return nil
}

// Available lists venues free for the requested interval. A nil interval
// lists venues without a time filter.
func (s *venueService) Available(ctx context.Context, requested *availability.Interval, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	if filter == nil {
		filter = &model.VenueFilter{}
	}
	filter.AvailableOnly = true

	venues, err := s.repo.FindAll(ctx, filter, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list venues for availability", "error", err)
		return nil, apperrors.Internal("Failed to retrieve venues", err)
	}

	bookingsByVenue := map[string][]availability.Booking{}
	if requested != nil && len(venues) > 0 {
		venueIDs := make([]string, 0, len(venues))
		for _, v := range venues {
			venueIDs = append(venueIDs, v.ID)
		}
		start := requested.Start
		end := requested.End
		if end == nil {
			e := start.Add(s.engine.DefaultDuration())
			end = &e
		}
		events, err := s.bookings.FindActiveByVenues(ctx, venueIDs, &start, end)
		if err != nil {
			s.cfg.Log.Error("Failed to load venue bookings", "error", err)
			return nil, apperrors.Internal("Failed to check venue availability", err)
		}
		for _, e := range events {
			bookingsByVenue[e.VenueID] = append(bookingsByVenue[e.VenueID], availability.BookingFromEvent(e))
		}
	}

	values := make([]model.Venue, 0, len(venues))
	for _, v := range venues {
		values = append(values, *v)
	}

	available, err := s.engine.AvailableVenues(requested, values, bookingsByVenue)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidInterval) {
			return nil, apperrors.InvalidInput(err.Error())
		}
		return nil, apperrors.Internal("Failed to check venue availability", err)
	}

	result := make([]*model.Venue, 0, len(available))
	for i := range available {
		result = append(result, &available[i])
	}
	return result, nil
}

// CheckAvailability reports whether a venue is free for the interval and
// lists every conflicting booking when it is not.
func (s *venueService) CheckAvailability(ctx context.Context, venueID string, requested availability.Interval, excludeEventID string) (*AvailabilityReport, error) {
	venue, err := s.GetByID(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsAvailable {
		return &AvailabilityReport{Available: false, Reason: ReasonVenueUnavailable}, nil
	}

	start := requested.Start
	end := requested.End
	if end == nil && !start.IsZero() {
		e := start.Add(s.engine.DefaultDuration())
		end = &e
	}
	events, err := s.bookings.FindActiveByVenues(ctx, []string{venueID}, &start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to load venue bookings", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to check venue availability", err)
	}

	candidates := make([]availability.Booking, 0, len(events))
	for _, e := range events {
		candidates = append(candidates, availability.BookingFromEvent(e))
	}

	conflicts, err := s.engine.Conflicts(requested, excludeEventID, candidates)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidInterval) {
			return nil, apperrors.InvalidInput(err.Error())
		}
		return nil, apperrors.Internal("Failed to check venue availability", err)
	}

	report := &AvailabilityReport{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}
	if !report.Available {
		report.Reason = ReasonTimeConflict
	}
	return report, nil
}

func (s *venueService) StatsOverview(ctx context.Context) (*model.VenueStats, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to compute venue stats", "error", err)
		return nil, apperrors.Internal("Failed to compute venue stats", err)
	}
	return stats, nil
}

// --- Helpers ---

func (s *venueService) sanitize(v *model.Venue) {
	v.Name = sanitizer.TrimAndNormalize(v.Name)
	v.Location = sanitizer.NormalizeLocation(v.Location)
	v.Description = sanitizer.TrimAndNormalize(v.Description)
	v.Amenities = sanitizer.NormalizeStrings(v.Amenities)
}

func (s *venueService) mergeVenueUpdates(existing *model.Venue, updates *model.VenueUpdate) *model.Venue {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Location != "" {
		merged.Location = updates.Location
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Amenities != nil {
		merged.Amenities = updates.Amenities
	}
	if updates.PricePerHour != nil {
		merged.PricePerHour = *updates.PricePerHour
	}
	if updates.Images != nil {
		merged.Images = updates.Images
	}
	if updates.IsAvailable != nil {
		merged.IsAvailable = *updates.IsAvailable
	}

	return &merged
}

func (s *venueService) validate(venue *model.Venue) error {
	if err := s.validator.Validate(venue); err != nil {
		s.cfg.Log.Warn("Venue validation failed", "error", err)
		return apperrors.Validation("Venue validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}
