package config

import "time"

// Refresh configures the orchestrator's guards, distinct from the tier
// cadence: MinRefreshInterval spaces refreshes of one entity regardless of
// which path requested them, OnDemandCooldown debounces the traffic-driven
// trigger process-wide.
type Refresh struct {
	MinRefreshInterval time.Duration `mapstructure:"MIN_REFRESH_INTERVAL"`
	OnDemandCooldown   time.Duration `mapstructure:"ON_DEMAND_COOLDOWN"`
	// MonitorInterval is the cadence on which the orchestrator re-checks the
	// business-hours state and reinstalls timers when it flips.
	MonitorInterval time.Duration `mapstructure:"SCHEDULE_MONITOR_INTERVAL"`
}

func (r Refresh) WithDefaults() Refresh {
	if r.MinRefreshInterval == 0 {
		r.MinRefreshInterval = 5 * time.Minute
	}
	if r.OnDemandCooldown == 0 {
		r.OnDemandCooldown = 10 * time.Minute
	}
	if r.MonitorInterval == 0 {
		r.MonitorInterval = 5 * time.Minute
	}
	return r
}
