package reader

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
	"github.com/glasswing/content-cache/pkg/mock"
	"github.com/glasswing/content-cache/pkg/model"
	"github.com/glasswing/content-cache/pkg/schedule"
)

// stubSource serves canned collections, counts calls and can be switched
// into a failing state to model an unavailable provider.
type stubSource struct {
	mu       sync.Mutex
	calls    int
	down     bool
	articles []model.Article
	total    int
	team     []model.TeamMember
	quotes   []model.Quote
	search   string
}

var _ content.Source = (*stubSource)(nil)

func (s *stubSource) called() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.down {
		return errors.New("provider unavailable")
	}
	return nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubSource) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *stubSource) ListArticles(_ context.Context, _, _ int, search string) ([]model.Article, int, error) {
	if err := s.called(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	s.search = search
	s.mu.Unlock()
	return s.articles, s.total, nil
}

func (s *stubSource) ListFeaturedArticles(context.Context) ([]model.Article, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	return s.articles, nil
}

func (s *stubSource) ListRecentArticles(context.Context, int) ([]model.Article, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	return s.articles, nil
}

func (s *stubSource) GetArticleByID(_ context.Context, id string) (*model.Article, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	for _, a := range s.articles {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *stubSource) ListArticlesByAuthor(_ context.Context, authorID string) ([]model.Article, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	var out []model.Article
	for _, a := range s.articles {
		if a.AuthorID == authorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubSource) ListTeamMembers(context.Context) ([]model.TeamMember, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	return s.team, nil
}

func (s *stubSource) GetTeamMemberByID(_ context.Context, id string) (*model.TeamMember, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	for _, m := range s.team {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *stubSource) ListQuotes(context.Context) ([]model.Quote, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	return s.quotes, nil
}

func (s *stubSource) QuoteOfDay(context.Context) (*model.Quote, error) {
	if err := s.called(); err != nil {
		return nil, err
	}
	if len(s.quotes) == 0 {
		return nil, nil
	}
	return &s.quotes[0], nil
}

func articles(n int) []model.Article {
	return mock.GenerateArticles(n)
}

func testReader(t *testing.T, src content.Source) (*Reader, *cachestore.Store, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
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

	return New(store, src, config.Upstream{}, mock), store, mock
}

// TestCacheHitSkipsSource verifies a fresh cache entry is served without any
// upstream call.
func TestCacheHitSkipsSource(t *testing.T) {
	src := &stubSource{}
	r, store, _ := testReader(t, src)

	cached := model.ArticleList(articles(2))
	require.NoError(t, cachestore.Put(store, model.EntityFeaturedArticles, cached))

	got := r.ListFeaturedArticles(context.Background())
	require.Equal(t, []model.Article(cached), got)
	require.Equal(t, 0, src.callCount())
}

// TestCacheMissPopulates verifies a miss goes upstream once and populates the
// cache for subsequent reads.
func TestCacheMissPopulates(t *testing.T) {
	src := &stubSource{articles: articles(2)}
	r, _, _ := testReader(t, src)

	got := r.ListFeaturedArticles(context.Background())
	require.Len(t, got, 2)
	require.Equal(t, 1, src.callCount())

	// Second read is served from the populated cache.
	got = r.ListFeaturedArticles(context.Background())
	require.Len(t, got, 2)
	require.Equal(t, 1, src.callCount())
}

// TestStaleFallback verifies an expired entry is still served when the
// provider is down.
func TestStaleFallback(t *testing.T) {
	src := &stubSource{}
	r, store, mock := testReader(t, src)

	cached := model.ArticleList(articles(3))
	require.NoError(t, cachestore.Put(store, model.EntityFeaturedArticles, cached))

	// Past the critical-tier expiry the fresh read misses; with the provider
	// down the stale entry is the answer.
	mock.Add(25 * time.Hour)
	src.setDown(true)

	got := r.ListFeaturedArticles(context.Background())
	require.Equal(t, []model.Article(cached), got)
	require.Equal(t, 1, src.callCount())
}

// TestEmptyLastResort verifies the safe empty value when there is no cache at
// all and the provider is down.
func TestEmptyLastResort(t *testing.T) {
	src := &stubSource{}
	src.setDown(true)
	r, _, _ := testReader(t, src)

	require.Empty(t, r.ListFeaturedArticles(context.Background()))
	require.Empty(t, r.ListTeamMembers(context.Background()))
	require.Empty(t, r.ListQuotes(context.Background()))

	items, total := r.ListArticles(context.Background(), 1, 10, "")
	require.Empty(t, items)
	require.Equal(t, 0, total)
}

// TestSearchBypassesCache verifies filtered queries always hit the provider
// and never touch the cache.
func TestSearchBypassesCache(t *testing.T) {
	src := &stubSource{articles: articles(1), total: 1}
	r, store, _ := testReader(t, src)

	// A cached full collection must not shadow the search.
	require.NoError(t, cachestore.Put(store, model.EntityArticles, model.ArticlePage{Items: articles(5), Total: 5}))

	items, total := r.ListArticles(context.Background(), 1, 10, "festival")
	require.Len(t, items, 1)
	require.Equal(t, 1, total)
	require.Equal(t, 1, src.callCount())
	require.Equal(t, "festival", src.search)

	// A failed search degrades to an empty page, not to cached data.
	src.setDown(true)
	items, total = r.ListArticles(context.Background(), 1, 10, "festival")
	require.Empty(t, items)
	require.Equal(t, 0, total)
}

// TestPagination verifies pages are computed locally over the cached full
// collection.
func TestPagination(t *testing.T) {
	src := &stubSource{}
	r, store, _ := testReader(t, src)

	require.NoError(t, cachestore.Put(store, model.EntityArticles, model.ArticlePage{Items: articles(25), Total: 25}))

	items, total := r.ListArticles(context.Background(), 2, 10, "")
	require.Equal(t, 25, total)
	require.Len(t, items, 10)
	require.Equal(t, "a10", items[0].ID)
	require.Equal(t, "a19", items[9].ID)

	// Short last page.
	items, _ = r.ListArticles(context.Background(), 3, 10, "")
	require.Len(t, items, 5)

	// Beyond the end: empty page, same total.
	items, total = r.ListArticles(context.Background(), 9, 10, "")
	require.Empty(t, items)
	require.Equal(t, 25, total)

	// Invalid paging input falls back to the first page, default size.
	items, _ = r.ListArticles(context.Background(), 0, -1, "")
	require.Len(t, items, 10)
	require.Equal(t, "a0", items[0].ID)

	require.Equal(t, 0, src.callCount())
}

// TestGetArticleByID resolves from the cached collection first, then the
// provider, then the stale collection.
func TestGetArticleByID(t *testing.T) {
	src := &stubSource{articles: articles(2)}
	r, store, mock := testReader(t, src)

	require.NoError(t, cachestore.Put(store, model.EntityArticles, model.ArticlePage{Items: articles(2), Total: 2}))

	a, ok := r.GetArticleByID(context.Background(), "a1")
	require.True(t, ok)
	require.Equal(t, "a1", a.ID)
	require.Equal(t, 0, src.callCount())

	// Not in the cached collection: the provider answers.
	_, ok = r.GetArticleByID(context.Background(), "a99")
	require.False(t, ok)
	require.Equal(t, 1, src.callCount())

	// Expired cache and provider down: stale collection still resolves.
	mock.Add(25 * time.Hour)
	src.setDown(true)
	a, ok = r.GetArticleByID(context.Background(), "a0")
	require.True(t, ok)
	require.Equal(t, "a0", a.ID)
}

// TestListArticlesByAuthor filters the cached collection locally.
func TestListArticlesByAuthor(t *testing.T) {
	src := &stubSource{}
	items := articles(3)
	items[0].AuthorID = "alex"
	items[2].AuthorID = "alex"
	r, store, _ := testReader(t, src)

	require.NoError(t, cachestore.Put(store, model.EntityArticles, model.ArticlePage{Items: items, Total: 3}))

	got := r.ListArticlesByAuthor(context.Background(), "alex")
	require.Len(t, got, 2)
	require.Equal(t, 0, src.callCount())
	require.Empty(t, r.ListArticlesByAuthor(context.Background(), "nobody"))
}

// TestGetTeamMemberByID resolves through the cached team collection.
func TestGetTeamMemberByID(t *testing.T) {
	src := &stubSource{team: []model.TeamMember{
		{ID: "t1", Name: "Alex"},
		{ID: "t2", Name: "Sam"},
	}}
	r, _, _ := testReader(t, src)

	m, ok := r.GetTeamMemberByID(context.Background(), "t2")
	require.True(t, ok)
	require.Equal(t, "Sam", m.Name)

	_, ok = r.GetTeamMemberByID(context.Background(), "t9")
	require.False(t, ok)

	// One upstream call fed both lookups through the cache.
	require.Equal(t, 1, src.callCount())
}

// TestQuoteOfDay picks deterministically by day of year over the cached
// collection.
func TestQuoteOfDay(t *testing.T) {
	quotes := []model.Quote{
		{ID: "q0", Text: "zero"},
		{ID: "q1", Text: "one"},
		{ID: "q2", Text: "two"},
	}
	src := &stubSource{quotes: quotes}
	r, _, mock := testReader(t, src)

	// 2024-01-10 is day 10 of the year: 10 % 3 == 1.
	q, ok := r.QuoteOfDay(context.Background())
	require.True(t, ok)
	require.Equal(t, "q1", q.ID)

	// Same day, same quote.
	again, ok := r.QuoteOfDay(context.Background())
	require.True(t, ok)
	require.Equal(t, q.ID, again.ID)

	// Next day rotates.
	mock.Add(24 * time.Hour)
	q, ok = r.QuoteOfDay(context.Background())
	require.True(t, ok)
	require.Equal(t, "q2", q.ID)
}
