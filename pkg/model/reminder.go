package model

import "time"

const (
	ReminderStatusScheduled = "scheduled"
	ReminderStatusSent      = "sent"
	ReminderStatusFailed    = "failed"
)

type Reminder struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	EventID   string    `json:"event_id" bson:"event_id"`
	Recipient string    `json:"recipient" bson:"recipient"`
	SendAt    time.Time `json:"send_at" bson:"send_at"`
	Status    string    `json:"status" bson:"status"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
