package model

import (
	"time"
)

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

type Event struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title           string     `json:"title" bson:"title" validate:"required,min=2,max=200"`
	Description     string     `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=5000"`
	StartAt         time.Time  `json:"start_at" bson:"start_at" validate:"required"`
	EndAt           *time.Time `json:"end_at,omitempty" bson:"end_at,omitempty"`
	Timezone        string     `json:"timezone" bson:"timezone" validate:"omitempty,max=64"`
	Location        string     `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty,max=300"`
	VenueID         string     `json:"venue_id,omitempty" bson:"venue_id,omitempty" validate:"omitempty,mongodb"`
	Status          string     `json:"status" bson:"status" validate:"required,oneof=draft published completed cancelled"`
	CreatedBy       string     `json:"created_by,omitempty" bson:"created_by,omitempty" validate:"omitempty,mongodb"`
	Category        string     `json:"category,omitempty" bson:"category,omitempty" validate:"omitempty,max=100"`
	Guests          []string   `json:"guests,omitempty" bson:"guests,omitempty" validate:"omitempty,dive,email"`
	RegisteredUsers []string   `json:"registered_users,omitempty" bson:"registered_users,omitempty" validate:"omitempty,dive,mongodb"`
	IsPaid          bool       `json:"is_paid" bson:"is_paid"`
	Price           float64    `json:"price" bson:"price" validate:"min=0"`
	Currency        string     `json:"currency" bson:"currency" validate:"omitempty,oneof=INR USD EUR GBP"`
	MaxAttendees    *int       `json:"max_attendees,omitempty" bson:"max_attendees,omitempty" validate:"omitempty,min=1"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// IsActive reports whether the event still occupies its venue. Completed and
// cancelled events are invisible to availability checks.
func (e *Event) IsActive() bool {
	return e.Status != EventStatusCompleted && e.Status != EventStatusCancelled
}

type EventUpdate struct {
	Title        string     `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	StartAt      *time.Time `json:"start_at,omitempty"`
	EndAt        *time.Time `json:"end_at,omitempty"`
	Timezone     string     `json:"timezone,omitempty" validate:"omitempty,max=64"`
	Location     *string    `json:"location,omitempty" validate:"omitempty,max=300"`
	VenueID      *string    `json:"venue_id,omitempty" validate:"omitempty"`
	Status       string     `json:"status,omitempty" validate:"omitempty,oneof=draft published completed cancelled"`
	Guests       []string   `json:"guests,omitempty" validate:"omitempty,dive,email"`
	Category     *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	MaxAttendees *int       `json:"max_attendees,omitempty" validate:"omitempty,min=1"`
}

type EventSearch struct {
	Query     string
	Category  string
	Location  string
	IsPaid    *bool
	MinPrice  *float64
	MaxPrice  *float64
	StartDate *time.Time
	EndDate   *time.Time
}
