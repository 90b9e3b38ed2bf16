package errors

import "errors"

var (
	ErrNotFound = errors.New("event not found")

	ErrInvalidID = errors.New("invalid event ID format")

	ErrVenueConflict = errors.New("venue is already booked for the requested time")

	ErrAlreadyRegistered = errors.New("user is already registered for this event")

	ErrEventFull = errors.New("event has reached maximum attendees")

	ErrEventOver = errors.New("event has already started or ended")
)
