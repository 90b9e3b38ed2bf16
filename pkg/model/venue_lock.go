package model

import "time"

// VenueLock is an advisory lock serializing booking mutations per venue.
// The lock document's _id is derived from the venue id, so a concurrent
// insert for the same venue fails with a duplicate key error. A TTL index
// on expires_at reaps locks abandoned by crashed requests.
type VenueLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
