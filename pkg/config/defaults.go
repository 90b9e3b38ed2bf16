package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "eventms"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Events without an explicit end occupy their venue for this long.
	// Comparisons only; the stored end stays unset.
	DefaultEventDuration = 2 * time.Hour

	DefaultVenueLockTTL = 10 * time.Second

	DefaultReminderLead         = 24 * time.Hour
	DefaultReminderPollInterval = 1 * time.Minute
	DefaultReminderBatchSize    = 50

	DefaultPaginationLimit = 100
)
