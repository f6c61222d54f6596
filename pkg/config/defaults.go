package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "nido"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	// Slot defaults applied when a slot is created without explicit settings.
	DefaultSlotMaxGuests            = 4
	DefaultSlotVisitDurationMin     = 60
	DefaultSlotBookingMode          = "auto_confirm"
	DefaultSlotMinimumLeadTimeHours = 2

	// Booking engine concurrency knobs.
	DefaultBookingRetryAttempts = 3
	DefaultBookingRetryBackoff  = 50 * time.Millisecond
	DefaultSlotLockTTL          = 10 * time.Second
)
