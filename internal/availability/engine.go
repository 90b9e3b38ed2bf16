// Package availability decides whether a requested time interval collides with
// the bookings already held at a venue. It is pure decision logic: callers
// fetch candidate bookings from storage, the engine only compares intervals.
package availability

import (
	"errors"
	"sort"
	"time"

	"eventms/pkg/model"
)

// ErrInvalidInterval reports a caller contract violation: a missing start, or
// an end at or before the start. No bookings are examined in that case.
var ErrInvalidInterval = errors.New("invalid interval: start is required and end must be after start")

// Interval is a half-open time range [Start, End). A nil End means the
// occupancy is open-ended and is defaulted to Start plus the engine's default
// duration for comparison purposes only.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// Booking is the engine's read-only view of an event occupying a venue.
type Booking struct {
	EventID string
	VenueID string
	Title   string
	Start   time.Time
	End     *time.Time
	Status  string
}

// BookingFromEvent derives the engine's view from a stored event.
func BookingFromEvent(e *model.Event) Booking {
	return Booking{
		EventID: e.ID,
		VenueID: e.VenueID,
		Title:   e.Title,
		Start:   e.StartAt,
		End:     e.EndAt,
		Status:  e.Status,
	}
}

type ConflictResult struct {
	Available bool
	Conflict  *Booking
}

// Engine evaluates interval overlap with a configurable default duration for
// open-ended bookings. It holds no mutable state; identical inputs always
// produce identical results.
type Engine struct {
	defaultDuration time.Duration
}

func NewEngine(defaultDuration time.Duration) *Engine {
	if defaultDuration <= 0 {
		defaultDuration = 2 * time.Hour
	}
	return &Engine{defaultDuration: defaultDuration}
}

func (e *Engine) DefaultDuration() time.Duration {
	return e.defaultDuration
}

// CheckConflict tests the requested interval against candidate bookings,
// which must already be scoped to a single venue. Bookings whose status is
// completed or cancelled are ignored, as is the booking matching
// excludeEventID (the event being edited, so it cannot conflict with itself).
// The first overlapping booking in input order is reported.
func (e *Engine) CheckConflict(requested Interval, excludeEventID string, candidates []Booking) (ConflictResult, error) {
	if err := e.validate(requested); err != nil {
		return ConflictResult{}, err
	}

	reqStart := requested.Start
	reqEnd := e.effectiveEnd(requested.Start, requested.End)

	for i := range candidates {
		b := &candidates[i]
		if !isActive(b.Status) {
			continue
		}
		if excludeEventID != "" && b.EventID == excludeEventID {
			continue
		}
		if overlaps(b.Start, e.effectiveEnd(b.Start, b.End), reqStart, reqEnd) {
			conflict := *b
			return ConflictResult{Available: false, Conflict: &conflict}, nil
		}
	}

	return ConflictResult{Available: true}, nil
}

// Conflicts collects every overlapping booking instead of stopping at the
// first. The explicit check-availability endpoint uses it so the UI can show
// the full list.
func (e *Engine) Conflicts(requested Interval, excludeEventID string, candidates []Booking) ([]Booking, error) {
	if err := e.validate(requested); err != nil {
		return nil, err
	}

	reqStart := requested.Start
	reqEnd := e.effectiveEnd(requested.Start, requested.End)

	var conflicts []Booking
	for i := range candidates {
		b := &candidates[i]
		if !isActive(b.Status) {
			continue
		}
		if excludeEventID != "" && b.EventID == excludeEventID {
			continue
		}
		if overlaps(b.Start, e.effectiveEnd(b.Start, b.End), reqStart, reqEnd) {
			conflicts = append(conflicts, *b)
		}
	}

	return conflicts, nil
}

// CheckBooking is the single conflict check shared by the event create and
// update paths. The interval comes from the booking's own times and the
// booking's own id is excluded: a no-op on create, where the id is not among
// the existing bookings yet, and the self-exclusion rule on update.
func (e *Engine) CheckBooking(booking Booking, existing []Booking) (ConflictResult, error) {
	return e.CheckConflict(Interval{Start: booking.Start, End: booking.End}, booking.EventID, existing)
}

// AvailableVenues filters venues to those administratively available and,
// when an interval is given, free of booking conflicts. A nil interval means
// browse mode: the time filter is skipped. Results are ordered by capacity
// ascending, ties broken by id.
func (e *Engine) AvailableVenues(requested *Interval, venues []model.Venue, bookingsByVenue map[string][]Booking) ([]model.Venue, error) {
	if requested != nil {
		if err := e.validate(*requested); err != nil {
			return nil, err
		}
	}

	available := make([]model.Venue, 0, len(venues))
	for _, v := range venues {
		if !v.IsAvailable {
			continue
		}
		if requested != nil {
			result, err := e.CheckConflict(*requested, "", bookingsByVenue[v.ID])
			if err != nil {
				return nil, err
			}
			if !result.Available {
				continue
			}
		}
		available = append(available, v)
	}

	sort.SliceStable(available, func(i, j int) bool {
		if available[i].Capacity != available[j].Capacity {
			return available[i].Capacity < available[j].Capacity
		}
		return available[i].ID < available[j].ID
	})

	return available, nil
}

func (e *Engine) validate(requested Interval) error {
	if requested.Start.IsZero() {
		return ErrInvalidInterval
	}
	if requested.End != nil && !requested.End.After(requested.Start) {
		return ErrInvalidInterval
	}
	return nil
}

func (e *Engine) effectiveEnd(start time.Time, end *time.Time) time.Time {
	if end == nil {
		return start.Add(e.defaultDuration)
	}
	return *end
}

func isActive(status string) bool {
	return status != model.EventStatusCompleted && status != model.EventStatusCancelled
}

// overlaps is the single half-open interval test: [start1, end1) and
// [start2, end2) overlap iff each starts before the other ends. Touching
// endpoints do not overlap.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}
