package config

import "time"

// Schedule drives the business-hours classification and the per-tier refresh
// cadence. Exact interval values are deployment configuration; validation in
// pkg/schedule enforces that every tier's cache expiry exceeds both of its
// refresh intervals, otherwise entries could expire before being refreshed.
type Schedule struct {
	BusinessTimezone  string `mapstructure:"BUSINESS_TIMEZONE"`
	BusinessDays      string `mapstructure:"BUSINESS_DAYS"`
	BusinessHourStart int    `mapstructure:"BUSINESS_HOUR_START"`
	BusinessHourEnd   int    `mapstructure:"BUSINESS_HOUR_END"`

	CriticalBusinessInterval  time.Duration `mapstructure:"CRITICAL_BUSINESS_INTERVAL"`
	CriticalOffHoursInterval  time.Duration `mapstructure:"CRITICAL_OFF_HOURS_INTERVAL"`
	CriticalCacheExpiry       time.Duration `mapstructure:"CRITICAL_CACHE_EXPIRY"`
	ImportantBusinessInterval time.Duration `mapstructure:"IMPORTANT_BUSINESS_INTERVAL"`
	ImportantOffHoursInterval time.Duration `mapstructure:"IMPORTANT_OFF_HOURS_INTERVAL"`
	ImportantCacheExpiry      time.Duration `mapstructure:"IMPORTANT_CACHE_EXPIRY"`
	StableBusinessInterval    time.Duration `mapstructure:"STABLE_BUSINESS_INTERVAL"`
	StableOffHoursInterval    time.Duration `mapstructure:"STABLE_OFF_HOURS_INTERVAL"`
	StableCacheExpiry         time.Duration `mapstructure:"STABLE_CACHE_EXPIRY"`
}

// WithDefaults fills zero values so a bare environment still yields a sane
// cadence table.
func (s Schedule) WithDefaults() Schedule {
	if s.BusinessTimezone == "" {
		s.BusinessTimezone = "America/New_York"
	}
	if s.BusinessDays == "" {
		s.BusinessDays = "Mon,Tue,Wed,Thu,Fri"
	}
	if s.BusinessHourStart == 0 && s.BusinessHourEnd == 0 {
		s.BusinessHourStart, s.BusinessHourEnd = 9, 17
	}
	if s.CriticalBusinessInterval == 0 {
		s.CriticalBusinessInterval = 15 * time.Minute
	}
	if s.CriticalOffHoursInterval == 0 {
		s.CriticalOffHoursInterval = time.Hour
	}
	if s.CriticalCacheExpiry == 0 {
		s.CriticalCacheExpiry = 24 * time.Hour
	}
	if s.ImportantBusinessInterval == 0 {
		s.ImportantBusinessInterval = 30 * time.Minute
	}
	if s.ImportantOffHoursInterval == 0 {
		s.ImportantOffHoursInterval = 2 * time.Hour
	}
	if s.ImportantCacheExpiry == 0 {
		s.ImportantCacheExpiry = 24 * time.Hour
	}
	if s.StableBusinessInterval == 0 {
		s.StableBusinessInterval = 2 * time.Hour
	}
	if s.StableOffHoursInterval == 0 {
		s.StableOffHoursInterval = 6 * time.Hour
	}
	if s.StableCacheExpiry == 0 {
		s.StableCacheExpiry = 48 * time.Hour
	}
	return s
}
