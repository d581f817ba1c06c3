package config

import "time"

// CacheStore configures the persisted entity cache and its lock namespace.
type CacheStore struct {
	// Dir is where entity artifacts live, one JSON file per entity key.
	Dir string `mapstructure:"CACHE_DIR"`
	// LockDir is a separate namespace for per-key lock artifacts.
	LockDir string `mapstructure:"CACHE_LOCK_DIR"`
	// LockStaleAfter is the age past which a lock is considered abandoned
	// by a crashed holder and may be forcibly broken by any acquirer.
	LockStaleAfter time.Duration `mapstructure:"CACHE_LOCK_STALE_AFTER"`
}

func (c CacheStore) WithDefaults() CacheStore {
	if c.Dir == "" {
		c.Dir = "var/cache/content"
	}
	if c.LockDir == "" {
		c.LockDir = "var/cache/locks"
	}
	if c.LockStaleAfter == 0 {
		c.LockStaleAfter = 10 * time.Minute
	}
	return c
}
