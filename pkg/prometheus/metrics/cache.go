package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache-subsystem collectors. Registered once at package init so every
// component increments the same series without wiring a meter through.
var (
	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_cache_hits_total",
		Help: "Number of cache reads served from a fresh persisted entry.",
	}, []string{"entity"})

	CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_cache_misses_total",
		Help: "Number of cache reads that found no usable entry.",
	}, []string{"entity"})

	LockContentions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_cache_lock_contentions_total",
		Help: "Number of writes skipped because another writer held the key lock.",
	}, []string{"entity"})

	RefreshRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_cache_refresh_runs_total",
		Help: "Refresh attempts by entity and outcome.",
	}, []string{"entity", "status"})

	MediaFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_cache_media_fetches_total",
		Help: "Media pre-fetch attempts by host class and outcome.",
	}, []string{"host_class", "status"})
)

func init() {
	prometheus.MustRegister(CacheHits, CacheMisses, LockContentions, RefreshRuns, MediaFetches)
}
