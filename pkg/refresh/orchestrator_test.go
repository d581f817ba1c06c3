package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/glasswing/content-cache/pkg/cachestore"
	"github.com/glasswing/content-cache/pkg/config"
	"github.com/glasswing/content-cache/pkg/content"
	"github.com/glasswing/content-cache/pkg/flock"
	"github.com/glasswing/content-cache/pkg/model"
	"github.com/glasswing/content-cache/pkg/prefetch"
	"github.com/glasswing/content-cache/pkg/schedule"
)

// fakeSource serves canned collections and counts upstream calls per entity.
type fakeSource struct {
	mu      sync.Mutex
	calls   map[model.Entity]int
	failing map[model.Entity]bool
}

var _ content.Source = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(map[model.Entity]int), failing: make(map[model.Entity]bool)}
}

func (f *fakeSource) called(e model.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[e]++
	if f.failing[e] {
		return errors.New("upstream unavailable")
	}
	return nil
}

func (f *fakeSource) callCount(e model.Entity) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[e]
}

func (f *fakeSource) fail(e model.Entity, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[e] = failing
}

func (f *fakeSource) ListArticles(_ context.Context, _, _ int, _ string) ([]model.Article, int, error) {
	if err := f.called(model.EntityArticles); err != nil {
		return nil, 0, err
	}
	return []model.Article{
		{ID: "a1", Title: "first", Image: &model.Media{URL: "https://cdn.example.com/a1.jpg"}},
		{ID: "a2", Title: "second"},
	}, 2, nil
}

func (f *fakeSource) ListFeaturedArticles(_ context.Context) ([]model.Article, error) {
	if err := f.called(model.EntityFeaturedArticles); err != nil {
		return nil, err
	}
	return []model.Article{{ID: "a1", Title: "first", Featured: true}}, nil
}

func (f *fakeSource) ListRecentArticles(_ context.Context, _ int) ([]model.Article, error) {
	if err := f.called(model.EntityRecentArticles); err != nil {
		return nil, err
	}
	return []model.Article{{ID: "a2", Title: "second"}}, nil
}

func (f *fakeSource) ListTeamMembers(_ context.Context) ([]model.TeamMember, error) {
	if err := f.called(model.EntityTeam); err != nil {
		return nil, err
	}
	return []model.TeamMember{{ID: "t1", Name: "Alex"}}, nil
}

func (f *fakeSource) ListQuotes(_ context.Context) ([]model.Quote, error) {
	if err := f.called(model.EntityQuotes); err != nil {
		return nil, err
	}
	return []model.Quote{{ID: "q1", Text: "stay curious"}}, nil
}

func (f *fakeSource) GetArticleByID(context.Context, string) (*model.Article, error) {
	return nil, nil
}

func (f *fakeSource) ListArticlesByAuthor(context.Context, string) ([]model.Article, error) {
	return nil, nil
}

func (f *fakeSource) GetTeamMemberByID(context.Context, string) (*model.TeamMember, error) {
	return nil, nil
}

func (f *fakeSource) QuoteOfDay(context.Context) (*model.Quote, error) { return nil, nil }

// fakePrefetcher records every processed batch; onProcess lets a test assert
// against the cache state at the moment the batch arrives.
type fakePrefetcher struct {
	mu        sync.Mutex
	batches   [][]string
	onProcess func(urls []string)
}

func (p *fakePrefetcher) Process(_ context.Context, urls []string) prefetch.Stats {
	p.mu.Lock()
	p.batches = append(p.batches, urls)
	fn := p.onProcess
	p.mu.Unlock()
	if fn != nil {
		fn(urls)
	}
	return prefetch.Stats{Fetched: int64(len(urls))}
}

func (p *fakePrefetcher) batchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func testOrchestrator(t *testing.T, src content.Source, pf Prefetcher) (*Orchestrator, *clock.Mock, *cachestore.Store) {
	t.Helper()

	mock := clock.NewMock()
	// A Wednesday morning inside business hours.
	mock.Set(time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC))

	sched, err := schedule.New(config.Schedule{BusinessTimezone: "UTC"})
	require.NoError(t, err)

	locks, err := flock.NewFileLocker(config.CacheStore{
		LockDir:        t.TempDir(),
		LockStaleAfter: 10 * time.Minute,
	}, mock)
	require.NoError(t, err)

	store, err := cachestore.New(config.CacheStore{Dir: t.TempDir()}, sched, locks, mock)
	require.NoError(t, err)

	o := New(
		context.Background(),
		config.Refresh{MinRefreshInterval: 5 * time.Minute, OnDemandCooldown: 10 * time.Minute},
		config.Upstream{},
		sched, store, src, pf, mock,
	)
	t.Cleanup(o.Stop)
	return o, mock, store
}

// TestTriggerOnDemandDebounce verifies the process-wide cooldown: a burst of
// triggers produces one refresh, and the window reopens after the cooldown.
func TestTriggerOnDemandDebounce(t *testing.T) {
	src := newFakeSource()
	o, mock, _ := testOrchestrator(t, src, &fakePrefetcher{})

	require.Equal(t, StatusRefreshed, o.TriggerOnDemand().Status)
	require.Equal(t, StatusSkipped, o.TriggerOnDemand().Status)
	require.Equal(t, StatusSkipped, o.TriggerOnDemand().Status)
	require.Equal(t, 1, src.callCount(model.EntityArticles))

	mock.Add(10 * time.Minute)
	require.Equal(t, StatusRefreshed, o.TriggerOnDemand().Status)
	require.Equal(t, 2, src.callCount(model.EntityArticles))
}

// TestTriggerOnDemandRefreshesTopEntityOnly verifies the traffic-driven path
// is bounded to the highest-priority entity.
func TestTriggerOnDemandRefreshesTopEntityOnly(t *testing.T) {
	src := newFakeSource()
	o, _, _ := testOrchestrator(t, src, &fakePrefetcher{})

	o.TriggerOnDemand()

	require.Equal(t, 1, src.callCount(model.EntityArticles))
	require.Equal(t, 0, src.callCount(model.EntityFeaturedArticles))
	require.Equal(t, 0, src.callCount(model.EntityTeam))
	require.Equal(t, 0, src.callCount(model.EntityQuotes))
}

// TestEmergencyRefreshAll verifies priority order, cooldown reset and that a
// partial failure never blocks the remaining entities.
func TestEmergencyRefreshAll(t *testing.T) {
	src := newFakeSource()
	o, _, store := testOrchestrator(t, src, &fakePrefetcher{})

	// Prime every cooldown.
	first := o.EmergencyRefreshAll(context.Background())
	require.Len(t, first, len(model.Entities()))

	src.fail(model.EntityTeam, true)

	// Cooldowns were just primed; the emergency path must reset them.
	results := o.EmergencyRefreshAll(context.Background())
	require.Len(t, results, len(model.Entities()))

	for i, e := range model.Entities() {
		require.Equal(t, e, results[i].Entity)
		if e == model.EntityTeam {
			require.Equal(t, StatusFailed, results[i].Status)
			require.Error(t, results[i].Err)
		} else {
			require.Equal(t, StatusRefreshed, results[i].Status)
		}
	}

	// Entities after the failed one were still refreshed and cached.
	_, ok := cachestore.Get[model.QuoteList](store, model.EntityQuotes)
	require.True(t, ok)
}

// TestRefreshEntityBypassesCooldown verifies the admin single-entity path
// ignores the minimum-interval guard.
func TestRefreshEntityBypassesCooldown(t *testing.T) {
	src := newFakeSource()
	o, _, _ := testOrchestrator(t, src, &fakePrefetcher{})

	for i := 0; i < 3; i++ {
		res, err := o.RefreshEntity(context.Background(), "team")
		require.NoError(t, err)
		require.Equal(t, StatusRefreshed, res.Status)
	}
	require.Equal(t, 3, src.callCount(model.EntityTeam))
}

// TestRefreshEntityUnknown rejects names outside the entity table.
func TestRefreshEntityUnknown(t *testing.T) {
	o, _, _ := testOrchestrator(t, newFakeSource(), &fakePrefetcher{})

	_, err := o.RefreshEntity(context.Background(), "nonsense")
	require.ErrorIs(t, err, model.ErrUnknownEntity)
}

// TestRefreshFailureKeepsExistingCache verifies a failed refresh leaves the
// previous entry in place and reports the failure in the result.
func TestRefreshFailureKeepsExistingCache(t *testing.T) {
	src := newFakeSource()
	o, _, store := testOrchestrator(t, src, &fakePrefetcher{})

	res, err := o.RefreshEntity(context.Background(), "quotes")
	require.NoError(t, err)
	require.Equal(t, StatusRefreshed, res.Status)

	src.fail(model.EntityQuotes, true)
	res, err = o.RefreshEntity(context.Background(), "quotes")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, res.Status)

	quotes, ok := cachestore.Get[model.QuoteList](store, model.EntityQuotes)
	require.True(t, ok)
	require.Len(t, quotes, 1)
}

// TestCachePopulatedBeforePrefetch verifies the ordering guarantee: by the
// time a media batch reaches the pipeline, its entity is already cached.
func TestCachePopulatedBeforePrefetch(t *testing.T) {
	src := newFakeSource()

	var store *cachestore.Store
	cachedWhenProcessed := false
	pf := &fakePrefetcher{onProcess: func(urls []string) {
		_, cachedWhenProcessed = cachestore.Get[model.ArticlePage](store, model.EntityArticles)
	}}

	o, _, s := testOrchestrator(t, src, pf)
	store = s

	res, err := o.RefreshEntity(context.Background(), "articles")
	require.NoError(t, err)
	require.Equal(t, StatusRefreshed, res.Status)

	require.Equal(t, 1, pf.batchCount())
	require.True(t, cachedWhenProcessed, "cache write must precede media pre-fetch")
}

// TestFailedRefreshSkipsPrefetch verifies no media batch is submitted when
// the upstream fetch fails.
func TestFailedRefreshSkipsPrefetch(t *testing.T) {
	src := newFakeSource()
	src.fail(model.EntityArticles, true)
	pf := &fakePrefetcher{}
	o, _, _ := testOrchestrator(t, src, pf)

	res, err := o.RefreshEntity(context.Background(), "articles")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, res.Status)
	require.Equal(t, 0, pf.batchCount())
}

// TestStartRefreshesEverythingAndSchedules verifies the initial full refresh
// and that critical-tier timers fire on the business-hours interval.
func TestStartRefreshesEverythingAndSchedules(t *testing.T) {
	src := newFakeSource()
	o, mock, _ := testOrchestrator(t, src, &fakePrefetcher{})

	o.Start()
	for _, e := range model.Entities() {
		require.Equal(t, 1, src.callCount(e))
	}

	// Critical business-hours interval is 15m by default; team (30m) and
	// quotes (2h) must not have fired yet. Timer callbacks run async.
	mock.Add(15 * time.Minute)
	require.Eventually(t, func() bool {
		return src.callCount(model.EntityArticles) == 2 &&
			src.callCount(model.EntityFeaturedArticles) == 2 &&
			src.callCount(model.EntityRecentArticles) == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, src.callCount(model.EntityTeam))
	require.Equal(t, 1, src.callCount(model.EntityQuotes))
}
