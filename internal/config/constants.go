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
	ServerWriteTimeout    = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Request body cap for the JSON API
const MaxRequestBodyBytes int64 = 1 << 20

// Background job intervals
const CleanupJobInterval = time.Hour

// Portal endpoint rate limiting (per IP)
const (
	PortalRateLimit       = 30
	PortalRateLimitWindow = time.Minute
)
