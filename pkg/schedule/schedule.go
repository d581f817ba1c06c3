package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glasswing/content-cache/pkg/config"
)

// Tier is a content-priority class driving both refresh cadence and cache
// lifetime.
type Tier string

const (
	TierCritical  Tier = "critical"
	TierImportant Tier = "important"
	TierStable    Tier = "stable"
)

// Timings holds the per-tier cadence: a faster interval during business
// hours, a slower one off hours, and a static cache expiry.
type Timings struct {
	BusinessHoursInterval time.Duration
	OffHoursInterval      time.Duration
	CacheExpiry           time.Duration
}

var weekdayNames = map[string]time.Weekday{
	"Sun": time.Sunday, "Mon": time.Monday, "Tue": time.Tuesday, "Wed": time.Wednesday,
	"Thu": time.Thursday, "Fri": time.Friday, "Sat": time.Saturday,
}

// Schedule classifies wall-clock time as business hours and maps tiers to
// refresh intervals and cache expiries. It is a pure function of its
// configuration and the time passed in: no state, no I/O.
type Schedule struct {
	loc     *time.Location
	days    map[time.Weekday]bool
	start   int // inclusive hour bound
	end     int // exclusive hour bound
	timings map[Tier]Timings
}

func New(cfg config.Schedule) (*Schedule, error) {
	cfg = cfg.WithDefaults()

	loc, err := time.LoadLocation(cfg.BusinessTimezone)
	if err != nil {
		return nil, fmt.Errorf("load business timezone: %w", err)
	}

	days := make(map[time.Weekday]bool, 7)
	for _, name := range strings.Split(cfg.BusinessDays, ",") {
		day, ok := weekdayNames[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown business day %q", name)
		}
		days[day] = true
	}

	if cfg.BusinessHourStart < 0 || cfg.BusinessHourEnd > 24 || cfg.BusinessHourStart >= cfg.BusinessHourEnd {
		return nil, errors.New("business hour bounds must satisfy 0 <= start < end <= 24")
	}

	s := &Schedule{
		loc:   loc,
		days:  days,
		start: cfg.BusinessHourStart,
		end:   cfg.BusinessHourEnd,
		timings: map[Tier]Timings{
			TierCritical: {
				BusinessHoursInterval: cfg.CriticalBusinessInterval,
				OffHoursInterval:      cfg.CriticalOffHoursInterval,
				CacheExpiry:           cfg.CriticalCacheExpiry,
			},
			TierImportant: {
				BusinessHoursInterval: cfg.ImportantBusinessInterval,
				OffHoursInterval:      cfg.ImportantOffHoursInterval,
				CacheExpiry:           cfg.ImportantCacheExpiry,
			},
			TierStable: {
				BusinessHoursInterval: cfg.StableBusinessInterval,
				OffHoursInterval:      cfg.StableOffHoursInterval,
				CacheExpiry:           cfg.StableCacheExpiry,
			},
		},
	}

	for tier, t := range s.timings {
		if t.CacheExpiry <= t.BusinessHoursInterval || t.CacheExpiry <= t.OffHoursInterval {
			return nil, fmt.Errorf("tier %s: cache expiry %s must exceed both refresh intervals", tier, t.CacheExpiry)
		}
	}

	return s, nil
}

// IsBusinessHours reports whether now, converted to the configured timezone,
// falls on a business day within the [start, end) hour bounds.
func (s *Schedule) IsBusinessHours(now time.Time) bool {
	local := now.In(s.loc)
	if !s.days[local.Weekday()] {
		return false
	}
	h := local.Hour()
	return h >= s.start && h < s.end
}

// RefreshInterval returns the tier's business-hours interval when now falls
// inside business hours, its off-hours interval otherwise.
func (s *Schedule) RefreshInterval(tier Tier, now time.Time) time.Duration {
	t := s.tierTimings(tier)
	if s.IsBusinessHours(now) {
		return t.BusinessHoursInterval
	}
	return t.OffHoursInterval
}

// CacheExpiry is static per tier, independent of time of day.
func (s *Schedule) CacheExpiry(tier Tier) time.Duration {
	return s.tierTimings(tier).CacheExpiry
}

// tierTimings falls back to the most conservative tier for unknown inputs.
func (s *Schedule) tierTimings(tier Tier) Timings {
	if t, ok := s.timings[tier]; ok {
		return t
	}
	return s.timings[TierStable]
}
