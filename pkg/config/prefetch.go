package config

import "time"

// Prefetch configures the media pre-fetch pipeline. Hosts listed in
// RateLimitedHosts (comma-separated substring patterns) get the narrow pool
// and mandatory inter-batch delay; everything else gets the generic pool.
type Prefetch struct {
	MediaDir             string        `mapstructure:"MEDIA_DIR"`
	GenericWorkers       int           `mapstructure:"PREFETCH_GENERIC_WORKERS"`
	RateLimitedWorkers   int           `mapstructure:"PREFETCH_RATE_LIMITED_WORKERS"`
	RateLimitedBatchSize int           `mapstructure:"PREFETCH_RATE_LIMITED_BATCH_SIZE"`
	RateLimitedDelay     time.Duration `mapstructure:"PREFETCH_RATE_LIMITED_DELAY"`
	RateLimitedHosts     string        `mapstructure:"PREFETCH_RATE_LIMITED_HOSTS"`
	FetchTimeout         time.Duration `mapstructure:"PREFETCH_FETCH_TIMEOUT"`
}

func (p Prefetch) WithDefaults() Prefetch {
	if p.MediaDir == "" {
		p.MediaDir = "var/cache/media"
	}
	if p.GenericWorkers == 0 {
		p.GenericWorkers = 8
	}
	if p.RateLimitedWorkers == 0 {
		p.RateLimitedWorkers = 2
	}
	if p.RateLimitedBatchSize == 0 {
		p.RateLimitedBatchSize = 5
	}
	if p.RateLimitedDelay == 0 {
		p.RateLimitedDelay = time.Second
	}
	if p.FetchTimeout == 0 {
		p.FetchTimeout = 30 * time.Second
	}
	return p
}
