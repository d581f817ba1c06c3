package config

import "time"

// Upstream configures the content-source HTTP client.
type Upstream struct {
	BaseURL        string        `mapstructure:"UPSTREAM_BASE_URL"`
	RequestTimeout time.Duration `mapstructure:"UPSTREAM_REQUEST_TIMEOUT"`
	RetryMax       int           `mapstructure:"UPSTREAM_RETRY_MAX"`
	// FullPageSize is how many articles one cached collection holds; reads
	// paginate over this collection instead of re-querying the provider.
	FullPageSize int `mapstructure:"UPSTREAM_FULL_PAGE_SIZE"`
	RecentLimit  int `mapstructure:"UPSTREAM_RECENT_LIMIT"`
}

func (u Upstream) WithDefaults() Upstream {
	if u.RequestTimeout == 0 {
		u.RequestTimeout = 10 * time.Second
	}
	if u.RetryMax == 0 {
		u.RetryMax = 2
	}
	if u.FullPageSize == 0 {
		u.FullPageSize = 100
	}
	if u.RecentLimit == 0 {
		u.RecentLimit = 10
	}
	return u
}
