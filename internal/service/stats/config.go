package stats

import "time"

// GatherConfig configures how the stats sources are queried.
type GatherConfig struct {
	// Enabled controls whether the gatherer decorators are used at all.
	// When false the source is used as is.
	Enabled bool

	// CacheSchemas enables the schema catalog cache.
	CacheSchemas bool

	// CacheTTL is how long a cached schema catalog remains valid.
	CacheTTL time.Duration

	// EnableRetry enables query retries with backoff.
	EnableRetry bool

	// MaxRetries is the maximum number of attempts of a query.
	MaxRetries int

	// QueryTimeout is the timeout of every query attempt.
	QueryTimeout time.Duration
}

// DefaultGatherConfig returns the default configuration.
func DefaultGatherConfig() GatherConfig {
	return GatherConfig{
		Enabled:      true,
		CacheSchemas: true,
		CacheTTL:     5 * time.Minute,
		EnableRetry:  true,
		MaxRetries:   3,
		QueryTimeout: 5 * time.Second,
	}
}

// LegacyGatherConfig returns the configuration that queries the source
// once, with no cache and no timeout, like the monitor command does.
func LegacyGatherConfig() GatherConfig {
	return GatherConfig{
		Enabled:      false,
		CacheSchemas: false,
		EnableRetry:  false,
		QueryTimeout: 0, // No explicit timeout.
	}
}

func (c *GatherConfig) defaults() {
	d := DefaultGatherConfig()
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.QueryTimeout < 0 {
		c.QueryTimeout = 0
	}
}
