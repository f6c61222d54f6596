package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotMaxGuests            = "SLOT_MAX_GUESTS"
	EnvSlotVisitDurationMin     = "SLOT_VISIT_DURATION_MIN"
	EnvSlotBookingMode          = "SLOT_BOOKING_MODE"
	EnvSlotMinimumLeadTimeHours = "SLOT_MINIMUM_LEAD_TIME_HOURS"

	EnvBookingRetryAttempts = "BOOKING_RETRY_ATTEMPTS"
	EnvBookingRetryBackoff  = "BOOKING_RETRY_BACKOFF"
	EnvSlotLockTTL          = "SLOT_LOCK_TTL"
)
