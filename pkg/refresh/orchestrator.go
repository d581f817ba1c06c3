package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/glasswing/content-cache/pkg/cachestore"
	"github.com/glasswing/content-cache/pkg/config"
	"github.com/glasswing/content-cache/pkg/content"
	"github.com/glasswing/content-cache/pkg/model"
	"github.com/glasswing/content-cache/pkg/prefetch"
	"github.com/glasswing/content-cache/pkg/prometheus/metrics"
	"github.com/glasswing/content-cache/pkg/schedule"
)

// Prefetcher consumes the media URLs referenced by a freshly-cached batch.
type Prefetcher interface {
	Process(ctx context.Context, urls []string) prefetch.Stats
}

// Orchestrator owns the per-entity refresh lifecycle: one timer per entity
// on the tier-selected interval, a business-hours monitor that reinstalls
// timers when the state flips, a debounced on-demand trigger for user-facing
// traffic, and the emergency path for publish webhooks. Within one refresh,
// cache population happens before media pre-fetch for that batch.
type Orchestrator struct {
	cfg      config.Refresh
	upstream config.Upstream

	sched      *schedule.Schedule
	store      *cachestore.Store
	source     content.Source
	prefetcher Prefetcher
	clk        clock.Clock
	state      *State

	mu         sync.Mutex
	timers     map[model.Entity]*clock.Timer
	ticker     *clock.Ticker
	onDemandAt *time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(
	ctx context.Context,
	cfg config.Refresh,
	upstream config.Upstream,
	sched *schedule.Schedule,
	store *cachestore.Store,
	source content.Source,
	prefetcher Prefetcher,
	clk clock.Clock,
) *Orchestrator {
	ctx, cancel := context.WithCancel(ctx)
	return &Orchestrator{
		cfg:        cfg.WithDefaults(),
		upstream:   upstream.WithDefaults(),
		sched:      sched,
		store:      store,
		source:     source,
		prefetcher: prefetcher,
		clk:        clk,
		state:      NewState(),
		timers:     make(map[model.Entity]*clock.Timer, len(model.Entities())),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start performs one immediate refresh of every entity, installs one timer
// per entity on the tier-appropriate interval, and begins watching for
// business-hours flips.
func (o *Orchestrator) Start() {
	log.Info().Msg("[refresh] starting schedules")

	for _, e := range model.Entities() {
		o.refresh(o.ctx, e, false)
	}

	o.mu.Lock()
	o.installTimersLocked()
	o.mu.Unlock()

	go o.monitorBusinessHours()
}

// Stop prevents new timer ticks from firing. In-flight refreshes and fetches
// are not aborted; deadlines live at the I/O call level.
func (o *Orchestrator) Stop() {
	o.cancel()
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range o.timers {
		t.Stop()
	}
	if o.ticker != nil {
		o.ticker.Stop()
	}
	log.Info().Msg("[refresh] schedules stopped")
}

// TriggerOnDemand is the debounced, coalesced refresh path invoked by
// user-facing traffic. It only proceeds once per cooldown window, and to
// bound cost under load it refreshes only the highest-priority entity.
func (o *Orchestrator) TriggerOnDemand() Result {
	top := model.Entities()[0]

	o.mu.Lock()
	now := o.clk.Now()
	if o.onDemandAt != nil && now.Sub(*o.onDemandAt) < o.cfg.OnDemandCooldown {
		o.mu.Unlock()
		return Result{Entity: top, Status: StatusSkipped}
	}
	o.onDemandAt = &now
	o.mu.Unlock()

	return o.refresh(o.ctx, top, false)
}

// EmergencyRefreshAll resets every per-entity cooldown and refreshes all
// entities immediately, in priority order so a partial failure still
// benefits the most-seen content. Used by the admin trigger API.
func (o *Orchestrator) EmergencyRefreshAll(ctx context.Context) []Result {
	log.Info().Msg("[refresh] emergency refresh of all entities")
	o.state.ResetAll()

	results := make([]Result, 0, len(model.Entities()))
	for _, e := range model.Entities() {
		results = append(results, o.refresh(ctx, e, false))
	}
	return results
}

// RefreshEntity refreshes one entity by its wire name, bypassing the
// cooldown guard.
func (o *Orchestrator) RefreshEntity(ctx context.Context, name string) (Result, error) {
	e, err := model.ParseEntity(name)
	if err != nil {
		return Result{}, err
	}
	return o.refresh(ctx, e, true), nil
}

// refresh runs one entity through Idle -> Running -> Cooldown. Any upstream
// failure is logged and swallowed: the entity stays on its existing cache
// until the next successful attempt.
func (o *Orchestrator) refresh(ctx context.Context, e model.Entity, force bool) Result {
	if !force && o.state.InCooldown(e, o.clk.Now(), o.cfg.MinRefreshInterval) {
		metrics.RefreshRuns.WithLabelValues(e.String(), string(StatusSkipped)).Inc()
		return Result{Entity: e, Status: StatusSkipped}
	}
	if !o.state.TryStart(e) {
		metrics.RefreshRuns.WithLabelValues(e.String(), string(StatusSkipped)).Inc()
		return Result{Entity: e, Status: StatusSkipped}
	}

	urls, err := o.fetchAndCache(ctx, e)
	o.state.Finish(e, o.clk.Now(), err == nil)

	if err != nil {
		metrics.RefreshRuns.WithLabelValues(e.String(), string(StatusFailed)).Inc()
		log.Err(err).Msgf("[refresh] %s refresh failed, serving existing cache", e)
		return Result{Entity: e, Status: StatusFailed, Err: err}
	}

	if len(urls) > 0 {
		o.prefetcher.Process(ctx, urls)
	}

	metrics.RefreshRuns.WithLabelValues(e.String(), string(StatusRefreshed)).Inc()
	log.Info().Msgf("[refresh] %s refreshed", e)
	return Result{Entity: e, Status: StatusRefreshed}
}

// fetchAndCache pulls the entity's collection from the content source and
// writes it through the cache store. Returned URLs feed the pre-fetch
// pipeline strictly after the cache write.
func (o *Orchestrator) fetchAndCache(ctx context.Context, e model.Entity) ([]string, error) {
	switch e {
	case model.EntityArticles:
		items, total, err := o.source.ListArticles(ctx, 1, o.upstream.FullPageSize, "")
		if err != nil {
			return nil, err
		}
		put(o, e, model.ArticlePage{Items: items, Total: total})
		return prefetch.CollectMediaURLs(items), nil

	case model.EntityFeaturedArticles:
		items, err := o.source.ListFeaturedArticles(ctx)
		if err != nil {
			return nil, err
		}
		put(o, e, model.ArticleList(items))
		return prefetch.CollectMediaURLs(items), nil

	case model.EntityRecentArticles:
		items, err := o.source.ListRecentArticles(ctx, o.upstream.RecentLimit)
		if err != nil {
			return nil, err
		}
		put(o, e, model.ArticleList(items))
		return prefetch.CollectMediaURLs(items), nil

	case model.EntityTeam:
		items, err := o.source.ListTeamMembers(ctx)
		if err != nil {
			return nil, err
		}
		put(o, e, model.TeamList(items))
		return prefetch.CollectMediaURLs(items), nil

	case model.EntityQuotes:
		items, err := o.source.ListQuotes(ctx)
		if err != nil {
			return nil, err
		}
		put(o, e, model.QuoteList(items))
		return nil, nil

	default:
		return nil, model.ErrUnknownEntity
	}
}

// put is best-effort: a busy lock means another writer is caching this key
// right now, which is fine.
func put[T model.Validatable](o *Orchestrator, e model.Entity, data T) {
	if err := cachestore.Put(o.store, e, data); err != nil && err != cachestore.ErrLockBusy {
		log.Err(err).Msgf("[refresh] failed to cache %s", e)
	}
}

// installTimersLocked installs one timer per entity using the tier interval
// for the current business-hours state. Callers hold o.mu.
func (o *Orchestrator) installTimersLocked() {
	now := o.clk.Now()
	for _, e := range model.Entities() {
		interval := o.sched.RefreshInterval(e.Tier(), now)
		o.timers[e] = o.clk.AfterFunc(interval, o.tickFunc(e))
	}
}

func (o *Orchestrator) tickFunc(e model.Entity) func() {
	return func() {
		select {
		case <-o.ctx.Done():
			return
		default:
		}

		o.refresh(o.ctx, e, false)

		o.mu.Lock()
		if t, ok := o.timers[e]; ok {
			t.Reset(o.sched.RefreshInterval(e.Tier(), o.clk.Now()))
		}
		o.mu.Unlock()
	}
}

// monitorBusinessHours recomputes intervals on a fixed cadence and, when the
// business-hours state has flipped, cancels and reinstalls the per-entity
// timers with the new intervals. In-flight refreshes are not interrupted.
func (o *Orchestrator) monitorBusinessHours() {
	o.mu.Lock()
	o.ticker = o.clk.Ticker(o.cfg.MonitorInterval)
	ticker := o.ticker
	o.mu.Unlock()

	current := o.sched.IsBusinessHours(o.clk.Now())
	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			next := o.sched.IsBusinessHours(o.clk.Now())
			if next == current {
				continue
			}
			current = next
			log.Info().Msgf("[refresh] business hours flipped to %v, rescheduling timers", next)

			o.mu.Lock()
			for _, t := range o.timers {
				t.Stop()
			}
			o.installTimersLocked()
			o.mu.Unlock()
		}
	}
}
