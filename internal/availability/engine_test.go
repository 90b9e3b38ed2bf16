package availability

import (
	"errors"
	"testing"
	"time"

	"eventms/pkg/model"
)

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time {
	return base.Add(offset)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func booking(id string, start time.Time, end *time.Time, status string) Booking {
	return Booking{
		EventID: id,
		VenueID: "665f1b2e8f1a4c0012345678",
		Title:   "Booking " + id,
		Start:   start,
		End:     end,
		Status:  status,
	}
}

func TestCheckConflict_OverlapShapes(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	// One active booking 10:00-12:00.
	existing := []Booking{
		booking("a", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished),
	}

	tests := []struct {
		name          string
		requested     Interval
		wantAvailable bool
	}{
		{
			name:          "partial overlap from the right",
			requested:     Interval{Start: at(time.Hour), End: ptr(at(3 * time.Hour))},
			wantAvailable: false,
		},
		{
			name:          "partial overlap from the left",
			requested:     Interval{Start: at(-time.Hour), End: ptr(at(time.Hour))},
			wantAvailable: false,
		},
		{
			name:          "requested contains existing",
			requested:     Interval{Start: at(-time.Hour), End: ptr(at(4 * time.Hour))},
			wantAvailable: false,
		},
		{
			name:          "existing contains requested",
			requested:     Interval{Start: at(30 * time.Minute), End: ptr(at(90 * time.Minute))},
			wantAvailable: false,
		},
		{
			name:          "identical intervals",
			requested:     Interval{Start: at(0), End: ptr(at(2 * time.Hour))},
			wantAvailable: false,
		},
		{
			name:          "adjacent after, shared boundary",
			requested:     Interval{Start: at(2 * time.Hour), End: ptr(at(3 * time.Hour))},
			wantAvailable: true,
		},
		{
			name:          "adjacent before, shared boundary",
			requested:     Interval{Start: at(-time.Hour), End: ptr(at(0))},
			wantAvailable: true,
		},
		{
			name:          "fully disjoint",
			requested:     Interval{Start: at(5 * time.Hour), End: ptr(at(6 * time.Hour))},
			wantAvailable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.CheckConflict(tt.requested, "", existing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Available != tt.wantAvailable {
				t.Errorf("Available = %v, want %v", result.Available, tt.wantAvailable)
			}
			if !tt.wantAvailable && result.Conflict == nil {
				t.Errorf("expected the conflicting booking to be reported")
			}
			if tt.wantAvailable && result.Conflict != nil {
				t.Errorf("expected no conflict, got %q", result.Conflict.Title)
			}
		})
	}
}

func TestCheckConflict_Symmetry(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	a := booking("a", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)
	b := booking("b", at(time.Hour), ptr(at(3*time.Hour)), model.EventStatusPublished)

	aVsB, err := engine.CheckConflict(Interval{Start: a.Start, End: a.End}, "", []Booking{b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bVsA, err := engine.CheckConflict(Interval{Start: b.Start, End: b.End}, "", []Booking{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if aVsB.Available != bVsA.Available {
		t.Errorf("overlap verdict is not symmetric: a-vs-b=%v b-vs-a=%v", aVsB.Available, bVsA.Available)
	}
}

func TestCheckConflict_DefaultDurationEquivalence(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	openEnded := []Booking{booking("open", at(0), nil, model.EventStatusPublished)}
	explicit := []Booking{booking("explicit", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)}

	probes := []Interval{
		{Start: at(-time.Hour)},                                    // open-ended probe 09:00 -> 11:00
		{Start: at(90 * time.Minute), End: ptr(at(3 * time.Hour))}, // inside the defaulted window
		{Start: at(2 * time.Hour), End: ptr(at(3 * time.Hour))},    // adjacent to the defaulted end
	}

	for i, probe := range probes {
		gotOpen, err := engine.CheckConflict(probe, "", openEnded)
		if err != nil {
			t.Fatalf("probe %d: unexpected error: %v", i, err)
		}
		gotExplicit, err := engine.CheckConflict(probe, "", explicit)
		if err != nil {
			t.Fatalf("probe %d: unexpected error: %v", i, err)
		}
		if gotOpen.Available != gotExplicit.Available {
			t.Errorf("probe %d: open-ended booking behaves differently from explicit 2h end: %v vs %v",
				i, gotOpen.Available, gotExplicit.Available)
		}
	}
}

func TestCheckConflict_StatusFiltering(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	requested := Interval{Start: at(0), End: ptr(at(2 * time.Hour))}

	for _, status := range []string{model.EventStatusCompleted, model.EventStatusCancelled} {
		existing := []Booking{booking("x", at(0), ptr(at(2*time.Hour)), status)}
		result, err := engine.CheckConflict(requested, "", existing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Available {
			t.Errorf("%s booking must never cause a conflict", status)
		}
	}

	for _, status := range []string{model.EventStatusDraft, model.EventStatusPublished} {
		existing := []Booking{booking("x", at(0), ptr(at(2*time.Hour)), status)}
		result, err := engine.CheckConflict(requested, "", existing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Available {
			t.Errorf("%s booking must participate in conflict checks", status)
		}
	}
}

func TestCheckConflict_SelfExclusion(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	self := booking("self", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)

	// Moving the event within its own old slot: only the stored copy exists.
	result, err := engine.CheckConflict(Interval{Start: at(time.Hour), End: ptr(at(3 * time.Hour))}, "self", []Booking{self})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Available {
		t.Errorf("an event must not conflict with its own stored interval")
	}

	// Without the exclusion the same inputs do conflict.
	result, err = engine.CheckConflict(Interval{Start: at(time.Hour), End: ptr(at(3 * time.Hour))}, "", []Booking{self})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Available {
		t.Errorf("expected a conflict when the event is not excluded")
	}
}

func TestCheckBooking_CreateAndUpdatePaths(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	stored := booking("ev1", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)

	// Update path: the edited event is among the candidates and excludes itself.
	edited := stored
	edited.Start = at(30 * time.Minute)
	edited.End = ptr(at(150 * time.Minute))
	result, err := engine.CheckBooking(edited, []Booking{stored})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Available {
		t.Errorf("update must not self-conflict")
	}

	// Create path: a fresh event with no id clashes with the stored one.
	fresh := booking("", at(time.Hour), ptr(at(3*time.Hour)), model.EventStatusPublished)
	result, err = engine.CheckBooking(fresh, []Booking{stored})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Available {
		t.Errorf("create must detect the conflict with the stored booking")
	}
}

func TestCheckConflict_FirstConflictInInputOrder(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	existing := []Booking{
		booking("first", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished),
		booking("second", at(time.Hour), ptr(at(3*time.Hour)), model.EventStatusPublished),
	}

	result, err := engine.CheckConflict(Interval{Start: at(0), End: ptr(at(4 * time.Hour))}, "", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Available {
		t.Fatalf("expected a conflict")
	}
	if result.Conflict.EventID != "first" {
		t.Errorf("expected the first candidate in input order, got %q", result.Conflict.EventID)
	}
}

func TestCheckConflict_Idempotent(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	existing := []Booking{booking("a", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)}
	requested := Interval{Start: at(time.Hour), End: ptr(at(3 * time.Hour))}

	first, err := engine.CheckConflict(requested, "", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.CheckConflict(requested, "", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Available != second.Available {
		t.Errorf("identical inputs produced different verdicts")
	}
	if first.Conflict.EventID != second.Conflict.EventID {
		t.Errorf("identical inputs reported different conflicts")
	}
}

func TestCheckConflict_InvalidInterval(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	existing := []Booking{booking("a", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)}

	tests := []struct {
		name      string
		requested Interval
	}{
		{name: "missing start", requested: Interval{End: ptr(at(time.Hour))}},
		{name: "end before start", requested: Interval{Start: at(2 * time.Hour), End: ptr(at(time.Hour))}},
		{name: "end equals start", requested: Interval{Start: at(time.Hour), End: ptr(at(time.Hour))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CheckConflict(tt.requested, "", existing)
			if !errors.Is(err, ErrInvalidInterval) {
				t.Errorf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}

func TestConflicts_CollectsAll(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	existing := []Booking{
		booking("a", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished),
		booking("b", at(time.Hour), ptr(at(3*time.Hour)), model.EventStatusPublished),
		booking("c", at(5*time.Hour), ptr(at(6*time.Hour)), model.EventStatusPublished),
		booking("d", at(90*time.Minute), ptr(at(4*time.Hour)), model.EventStatusCancelled),
	}

	conflicts, err := engine.Conflicts(Interval{Start: at(0), End: ptr(at(4 * time.Hour))}, "", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(conflicts))
	}
	if conflicts[0].EventID != "a" || conflicts[1].EventID != "b" {
		t.Errorf("conflicts out of input order: %q, %q", conflicts[0].EventID, conflicts[1].EventID)
	}
}

func TestAvailableVenues(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	venues := []model.Venue{
		{ID: "v3", Name: "Grand Hall", Capacity: 500, IsAvailable: true},
		{ID: "v1", Name: "Studio", Capacity: 40, IsAvailable: true},
		{ID: "v2", Name: "Loft", Capacity: 40, IsAvailable: true},
		{ID: "v4", Name: "Closed Wing", Capacity: 10, IsAvailable: false},
		{ID: "v5", Name: "Terrace", Capacity: 120, IsAvailable: true},
	}

	bookingsByVenue := map[string][]Booking{
		// Terrace is occupied during the probe window.
		"v5": {booking("t", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)},
		// Grand Hall only has a cancelled booking.
		"v3": {booking("g", at(0), ptr(at(2*time.Hour)), model.EventStatusCancelled)},
	}

	requested := &Interval{Start: at(time.Hour), End: ptr(at(3 * time.Hour))}
	got, err := engine.AvailableVenues(requested, venues, bookingsByVenue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantOrder := []string{"v1", "v2", "v3"}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d venues, got %d", len(wantOrder), len(got))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestAvailableVenues_BrowseMode(t *testing.T) {
	engine := NewEngine(2 * time.Hour)

	venues := []model.Venue{
		{ID: "v1", Capacity: 40, IsAvailable: true},
		{ID: "v2", Capacity: 10, IsAvailable: false},
		{ID: "v3", Capacity: 500, IsAvailable: true},
	}

	// Even a fully booked venue shows up when no interval is given.
	bookingsByVenue := map[string][]Booking{
		"v1": {booking("x", at(0), nil, model.EventStatusPublished)},
	}

	got, err := engine.AvailableVenues(nil, venues, bookingsByVenue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 venues in browse mode, got %d", len(got))
	}
	if got[0].ID != "v1" || got[1].ID != "v3" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestCheckConflict_SingleBookingScenarios(t *testing.T) {
	// Venue with one active booking 2025-06-01T10:00Z to 12:00Z.
	engine := NewEngine(2 * time.Hour)
	existing := []Booking{booking("ev", at(0), ptr(at(2*time.Hour)), model.EventStatusPublished)}

	// 11:00-13:00 conflicts.
	result, err := engine.CheckConflict(Interval{Start: at(time.Hour), End: ptr(at(3 * time.Hour))}, "", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Available {
		t.Errorf("11:00-13:00 must conflict with 10:00-12:00")
	}
	if result.Conflict == nil || result.Conflict.EventID != "ev" {
		t.Errorf("expected the stored booking to be reported")
	}

	// 12:00-13:00 is adjacent, not overlapping.
	result, err = engine.CheckConflict(Interval{Start: at(2 * time.Hour), End: ptr(at(3 * time.Hour))}, "", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Available {
		t.Errorf("12:00-13:00 must be available")
	}

	// 09:00 with no end defaults to 11:00 and overlaps 10:00-12:00.
	result, err = engine.CheckConflict(Interval{Start: at(-time.Hour)}, "", existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Available {
		t.Errorf("09:00 open-ended must conflict with 10:00-12:00")
	}
}
