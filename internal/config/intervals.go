package config

import "time"

// Worker intervals
const (
	// PostgresFlushInterval defines how often dirty routes are written to PostgreSQL
	PostgresFlushInterval = 30 * time.Second
)

// Cache lifetimes
const (
	// GeocodeCacheTTL defines how long a resolved address stays in Redis
	GeocodeCacheTTL = 24 * time.Hour
)

// Outbound timeouts
const (
	GeocoderTimeout   = 10 * time.Second
	DirectionsTimeout = 15 * time.Second
	RedisTimeout      = 5 * time.Second
)
