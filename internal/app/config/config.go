package config

import (
	"time"

	pkgconfig "github.com/glasswing/content-cache/pkg/config"
	fasthttpconfig "github.com/glasswing/content-cache/pkg/server/config"
)

type Config struct {
	fasthttpconfig.HttpServer `mapstructure:",squash"`
	pkgconfig.CacheStore      `mapstructure:",squash"`
	pkgconfig.Schedule        `mapstructure:",squash"`
	pkgconfig.Refresh         `mapstructure:",squash"`
	pkgconfig.Prefetch        `mapstructure:",squash"`
	pkgconfig.Upstream        `mapstructure:",squash"`

	AppDebug             bool          `mapstructure:"APP_DEBUG"`
	LivenessProbeTimeout time.Duration `mapstructure:"LIVENESS_PROBE_FAILED_TIMEOUT"`
}

// Prepare fills every section's defaults; component constructors validate
// their own invariants on top of this.
func (c *Config) Prepare() {
	c.HttpServer = c.HttpServer.WithDefaults()
	c.CacheStore = c.CacheStore.WithDefaults()
	c.Schedule = c.Schedule.WithDefaults()
	c.Refresh = c.Refresh.WithDefaults()
	c.Prefetch = c.Prefetch.WithDefaults()
	c.Upstream = c.Upstream.WithDefaults()
}
