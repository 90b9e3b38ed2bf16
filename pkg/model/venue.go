package model

import "time"

type Venue struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=200"`
	Location     string    `json:"location" bson:"location" validate:"required,max=300"`
	Capacity     int       `json:"capacity" bson:"capacity" validate:"required,min=1"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=5000"`
	Amenities    []string  `json:"amenities,omitempty" bson:"amenities,omitempty" validate:"omitempty,dive,max=100"`
	PricePerHour float64   `json:"price_per_hour" bson:"price_per_hour" validate:"min=0"`
	Images       []string  `json:"images,omitempty" bson:"images,omitempty" validate:"omitempty,dive,url"`
	IsAvailable  bool      `json:"is_available" bson:"is_available"`
	CreatedBy    string    `json:"created_by,omitempty" bson:"created_by,omitempty" validate:"omitempty,mongodb"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type VenueUpdate struct {
	Name         string   `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Location     string   `json:"location,omitempty" validate:"omitempty,max=300"`
	Capacity     *int     `json:"capacity,omitempty" validate:"omitempty,min=1"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Amenities    []string `json:"amenities,omitempty" validate:"omitempty,dive,max=100"`
	PricePerHour *float64 `json:"price_per_hour,omitempty" validate:"omitempty,min=0"`
	Images       []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	IsAvailable  *bool    `json:"is_available,omitempty"`
}

type VenueFilter struct {
	MinCapacity   *int
	MaxCapacity   *int
	Location      string
	AvailableOnly bool
}

type VenueStats struct {
	TotalVenues     int64 `json:"total_venues" bson:"total_venues"`
	AvailableVenues int64 `json:"available_venues" bson:"available_venues"`
	TotalCapacity   int64 `json:"total_capacity" bson:"total_capacity"`
}
