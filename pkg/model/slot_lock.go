package model

import "time"

// SlotLock is an advisory lock serializing booking creation attempts against
// a single slot. The _id encodes the slot; inserting an existing _id fails
// with a duplicate-key error, which is how contention is detected. ExpiresAt
// backs a TTL index so crashed holders cannot wedge a slot.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
