package model

import "time"

const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
)

const (
	InvitationActionAccept  = "accept"
	InvitationActionDecline = "decline"
)

// Invitation tracks an emailed invite to an event. Delivery happens in the
// notification service; this record carries the RSVP token and its outcome.
type Invitation struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty"`
	EventID     string     `json:"event_id" bson:"event_id"`
	Email       string     `json:"email" bson:"email"`
	Token       string     `json:"token" bson:"token"`
	Status      string     `json:"status" bson:"status"`
	SentAt      time.Time  `json:"sent_at" bson:"sent_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
}

// InvitationRequest is the batch-create input.
type InvitationRequest struct {
	Emails []string `json:"emails"`
}

// InvitationResponse is the RSVP input submitted with a token.
type InvitationResponse struct {
	Action string `json:"action"`
}
