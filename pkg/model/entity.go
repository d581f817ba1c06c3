package model

import (
	"errors"

	"github.com/glasswing/content-cache/pkg/schedule"
)

// Entity names one cacheable collection owned by the refresh subsystem.
// Every entity maps to exactly one persisted cache artifact.
type Entity string

const (
	EntityArticles         Entity = "articles"
	EntityFeaturedArticles Entity = "featuredArticles"
	EntityRecentArticles   Entity = "recentArticles"
	EntityTeam             Entity = "team"
	EntityQuotes           Entity = "quotes"
)

var ErrUnknownEntity = errors.New("unknown entity")

// Entities returns all entities in priority order, most user-visible first.
// EmergencyRefreshAll and InvalidateAll walk this order so a partial failure
// still benefits the most-seen content.
func Entities() []Entity {
	return []Entity{
		EntityArticles,
		EntityFeaturedArticles,
		EntityRecentArticles,
		EntityTeam,
		EntityQuotes,
	}
}

// ParseEntity resolves an entity by its wire name (admin API input).
func ParseEntity(name string) (Entity, error) {
	for _, e := range Entities() {
		if string(e) == name {
			return e, nil
		}
	}
	return "", ErrUnknownEntity
}

func (e Entity) String() string { return string(e) }

// Tier maps an entity onto its content-priority class. Article collections
// are what visitors land on, the team page changes rarely, quotes almost never.
func (e Entity) Tier() schedule.Tier {
	switch e {
	case EntityArticles, EntityFeaturedArticles, EntityRecentArticles:
		return schedule.TierCritical
	case EntityTeam:
		return schedule.TierImportant
	case EntityQuotes:
		return schedule.TierStable
	default:
		return schedule.TierStable
	}
}
