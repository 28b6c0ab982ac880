package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 0
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// A daily pass over many paced accounts outlives ServerRequestTimeout.
const PassRequestTimeout = 2 * time.Hour

// The pass lock must outlive PassRequestTimeout by this margin so the outcome
// writes after a timed-out pass still run under the lock.
const PassLockMargin = 10 * time.Minute

// Redis keys
const (
	PassLockKey        = "solar:pass:lock"
	LastPassSummaryKey = "solar:pass:last"
	LastPassSummaryTTL = 7 * 24 * time.Hour
)

// Distribution probe timeout
const DistributionPingTimeout = 5 * time.Second

// Request body limit for JSON endpoints
const MaxRequestBodyBytes = 64 * 1024

// Per-address rate limit window for the trigger and /v1 routes
const RateLimitWindow = time.Minute
