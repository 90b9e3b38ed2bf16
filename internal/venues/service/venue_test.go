package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"eventms/internal/availability"
	venueserrors "eventms/internal/venues/errors"
	"eventms/internal/venues/validator"
	"eventms/pkg/auth"
	"eventms/pkg/config"
	apperrors "eventms/pkg/errors"
	"eventms/pkg/logger"
	"eventms/pkg/model"
)

const (
	testAdminID  = "665f1b2e8f1a4c0012345002"
	testUserID   = "665f1b2e8f1a4c0012345001"
	testVenueID  = "665f1b2e8f1a4c0012345100"
	testVenueID2 = "665f1b2e8f1a4c0012345101"
)

type mockVenueRepo struct {
	createFn   func(ctx context.Context, venue *model.Venue) error
	findByIDFn func(ctx context.Context, id string) (*model.Venue, error)
	findAllFn  func(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error)
	statsFn    func(ctx context.Context) (*model.VenueStats, error)
}

func (m *mockVenueRepo) Create(ctx context.Context, venue *model.Venue) error {
	if m.createFn != nil {
		return m.createFn(ctx, venue)
	}
	venue.ID = testVenueID
	return nil
}

func (m *mockVenueRepo) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, venueserrors.ErrNotFound
}

func (m *mockVenueRepo) FindAll(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	if m.findAllFn != nil {
		return m.findAllFn(ctx, filter, limit, offset)
	}
	return nil, nil
}

func (m *mockVenueRepo) Update(ctx context.Context, id string, venue *model.Venue) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockVenueRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockVenueRepo) Count(ctx context.Context, filter *model.VenueFilter) (int64, error) {
	return 0, nil
}

func (m *mockVenueRepo) Stats(ctx context.Context) (*model.VenueStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &model.VenueStats{}, nil
}

type mockBookingSource struct {
	findFn func(ctx context.Context, venueIDs []string, start, end *time.Time) ([]*model.Event, error)
}

func (m *mockBookingSource) FindActiveByVenues(ctx context.Context, venueIDs []string, start, end *time.Time) ([]*model.Event, error) {
	if m.findFn != nil {
		return m.findFn(ctx, venueIDs, start, end)
	}
	return nil, nil
}

func newTestService(repo *mockVenueRepo, bookings *mockBookingSource) VenueService {
	cfg := &config.Config{
		Log:                  logger.New(logger.Config{Level: "error"}),
		DefaultEventDuration: 2 * time.Hour,
	}
	return NewVenueService(
		repo,
		bookings,
		availability.NewEngine(cfg.DefaultEventDuration),
		validator.NewVenueValidator(cfg.Log),
		cfg,
	)
}

func adminContext() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: testAdminID, Role: auth.RoleAdmin})
}

func userContext() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: testUserID, Role: auth.RoleUser})
}

func venue(id string, capacity int, available bool) *model.Venue {
	return &model.Venue{
		ID:          id,
		Name:        "Hall " + id[len(id)-2:],
		Location:    "mumbai",
		Capacity:    capacity,
		IsAvailable: available,
	}
}

func TestCreate_AdminOnly(t *testing.T) {
	svc := newTestService(&mockVenueRepo{}, &mockBookingSource{})

	v := &model.Venue{Name: "Grand Hall", Location: "mumbai", Capacity: 100}

	err := svc.Create(userContext(), v)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}

	if err := svc.Create(adminContext(), v); err != nil {
		t.Fatalf("Create() as admin error = %v", err)
	}
	if v.CreatedBy != testAdminID {
		t.Errorf("CreatedBy = %q, want %q", v.CreatedBy, testAdminID)
	}
	if !v.IsAvailable {
		t.Error("new venues must start available")
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockVenueRepo{}, &mockBookingSource{})

	v := &model.Venue{Name: "x", Location: "somewhere", Capacity: 0}
	err := svc.Create(adminContext(), v)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAvailable_FiltersBookedVenues(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	repo := &mockVenueRepo{
		findAllFn: func(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
			if !filter.AvailableOnly {
				t.Error("availability search must only consider venues marked available")
			}
			return []*model.Venue{
				venue(testVenueID, 200, true),
				venue(testVenueID2, 50, true),
			}, nil
		},
	}
	bookings := &mockBookingSource{
		findFn: func(ctx context.Context, venueIDs []string, s, e *time.Time) ([]*model.Event, error) {
			// The large venue is booked for the whole window.
			bookedEnd := end
			return []*model.Event{
				{ID: "665f1b2e8f1a4c0012345999", VenueID: testVenueID, StartAt: start, EndAt: &bookedEnd, Status: model.EventStatusPublished},
			}, nil
		},
	}
	svc := newTestService(repo, bookings)

	venues, err := svc.Available(context.Background(), &availability.Interval{Start: start, End: &end}, nil, 20, 0)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if len(venues) != 1 {
		t.Fatalf("expected 1 free venue, got %d", len(venues))
	}
	if venues[0].ID != testVenueID2 {
		t.Errorf("free venue = %s, want %s", venues[0].ID, testVenueID2)
	}
}

func TestAvailable_BrowseModeSkipsTimeFilter(t *testing.T) {
	repo := &mockVenueRepo{
		findAllFn: func(ctx context.Context, filter *model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
			return []*model.Venue{
				venue(testVenueID, 200, true),
				venue(testVenueID2, 50, true),
			}, nil
		},
	}
	bookings := &mockBookingSource{
		findFn: func(ctx context.Context, venueIDs []string, s, e *time.Time) ([]*model.Event, error) {
			t.Fatal("browse mode must not load bookings")
			return nil, nil
		},
	}
	svc := newTestService(repo, bookings)

	venues, err := svc.Available(context.Background(), nil, nil, 20, 0)
	if err != nil {
		t.Fatalf("Available() error = %v", err)
	}
	if len(venues) != 2 {
		t.Fatalf("expected 2 venues, got %d", len(venues))
	}
	// Capacity ascending.
	if venues[0].ID != testVenueID2 || venues[1].ID != testVenueID {
		t.Errorf("unexpected order: %s, %s", venues[0].ID, venues[1].ID)
	}
}

func TestCheckAvailability(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	bookedStart := start.Add(time.Hour)
	bookedEnd := bookedStart.Add(2 * time.Hour)

	repo := &mockVenueRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Venue, error) {
			return venue(id, 100, true), nil
		},
	}
	bookings := &mockBookingSource{
		findFn: func(ctx context.Context, venueIDs []string, s, e *time.Time) ([]*model.Event, error) {
			return []*model.Event{
				{ID: "665f1b2e8f1a4c0012345999", VenueID: testVenueID, Title: "Overlapping", StartAt: bookedStart, EndAt: &bookedEnd, Status: model.EventStatusPublished},
			}, nil
		},
	}
	svc := newTestService(repo, bookings)

	report, err := svc.CheckAvailability(context.Background(), testVenueID, availability.Interval{Start: start, End: &end}, "")
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if report.Available {
		t.Error("expected venue to be unavailable")
	}
	if len(report.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(report.Conflicts))
	}
	if report.Conflicts[0].EventID != "665f1b2e8f1a4c0012345999" {
		t.Errorf("conflict event = %s", report.Conflicts[0].EventID)
	}
	if report.Reason != ReasonTimeConflict {
		t.Errorf("Reason = %q, want %q", report.Reason, ReasonTimeConflict)
	}

	// Excluding the conflicting event makes the venue free again.
	report, err = svc.CheckAvailability(context.Background(), testVenueID, availability.Interval{Start: start, End: &end}, "665f1b2e8f1a4c0012345999")
	if err != nil {
		t.Fatalf("CheckAvailability() with exclusion error = %v", err)
	}
	if !report.Available {
		t.Error("expected venue to be available after self-exclusion")
	}
}

func TestCheckAvailability_UnavailableVenue(t *testing.T) {
	repo := &mockVenueRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Venue, error) {
			return venue(id, 100, false), nil
		},
	}
	svc := newTestService(repo, &mockBookingSource{})

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	report, err := svc.CheckAvailability(context.Background(), testVenueID, availability.Interval{Start: start}, "")
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if report.Available {
		t.Error("administratively unavailable venue must never report available")
	}
	if report.Reason != ReasonVenueUnavailable {
		t.Errorf("Reason = %q, want %q", report.Reason, ReasonVenueUnavailable)
	}
}

func TestUpdate_NonAdminRejected(t *testing.T) {
	repo := &mockVenueRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Venue, error) {
			return venue(id, 100, true), nil
		},
	}
	svc := newTestService(repo, &mockBookingSource{})

	_, err := svc.Update(userContext(), testVenueID, &model.VenueUpdate{Name: "Renamed"})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestStatsOverview(t *testing.T) {
	repo := &mockVenueRepo{
		statsFn: func(ctx context.Context) (*model.VenueStats, error) {
			return &model.VenueStats{TotalVenues: 5, AvailableVenues: 3, TotalCapacity: 750}, nil
		},
	}
	svc := newTestService(repo, &mockBookingSource{})

	if _, err := svc.StatsOverview(userContext()); err == nil {
		t.Fatal("StatsOverview() expected error for non-admin, got nil")
	}

	stats, err := svc.StatsOverview(adminContext())
	if err != nil {
		t.Fatalf("StatsOverview() error = %v", err)
	}
	if stats.TotalVenues != 5 || stats.AvailableVenues != 3 || stats.TotalCapacity != 750 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
