package reader

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/glasswing/content-cache/pkg/cachestore"
	"github.com/glasswing/content-cache/pkg/config"
	"github.com/glasswing/content-cache/pkg/content"
	"github.com/glasswing/content-cache/pkg/model"
)

const defaultPageSize = 10

// Reader is the read path exposed to the application: serve from cache,
// fall back to the content source on miss, serve stale cache when the source
// fails, and degrade to safe empty values as last resort. It never returns
// transport errors, which is why its signatures carry no error at all.
// Concurrent misses of the same entity are coalesced into one upstream call.
type Reader struct {
	store  *cachestore.Store
	source content.Source
	cfg    config.Upstream
	clk    clock.Clock
	group  singleflight.Group
}

func New(store *cachestore.Store, source content.Source, cfg config.Upstream, clk clock.Clock) *Reader {
	return &Reader{store: store, source: source, cfg: cfg.WithDefaults(), clk: clk}
}

// ListArticles serves one page of the cached collection. Search-filtered
// queries are never cached: they always go to the content source, returning
// a safe empty page when it is unavailable.
func (r *Reader) ListArticles(ctx context.Context, page, pageSize int, search string) ([]model.Article, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	if search != "" {
		items, total, err := r.source.ListArticles(ctx, page, pageSize, search)
		if err != nil {
			log.Warn().Msgf("[reader] search query failed upstream: %s", err)
			return []model.Article{}, 0
		}
		return items, total
	}

	full := r.articlePage(ctx)
	return paginate(full.Items, page, pageSize), full.Total
}

func (r *Reader) ListFeaturedArticles(ctx context.Context) []model.Article {
	return readThrough(r, model.EntityFeaturedArticles, func() (model.ArticleList, error) {
		items, err := r.source.ListFeaturedArticles(ctx)
		return model.ArticleList(items), err
	})
}

func (r *Reader) ListRecentArticles(ctx context.Context, limit int) []model.Article {
	items := readThrough(r, model.EntityRecentArticles, func() (model.ArticleList, error) {
		fetched, err := r.source.ListRecentArticles(ctx, r.cfg.RecentLimit)
		return model.ArticleList(fetched), err
	})
	if limit > 0 && limit < len(items) {
		return items[:limit]
	}
	return items
}

func (r *Reader) GetArticleByID(ctx context.Context, id string) (*model.Article, bool) {
	if full, ok := cachestore.Get[model.ArticlePage](r.store, model.EntityArticles); ok {
		if a, found := findArticle(full.Items, id); found {
			return a, true
		}
	}

	item, err := r.source.GetArticleByID(ctx, id)
	if err != nil {
		log.Warn().Msgf("[reader] upstream unavailable for article %s, checking stale cache: %s", id, err)
		if full, ok := cachestore.GetStale[model.ArticlePage](r.store, model.EntityArticles); ok {
			return findArticle(full.Items, id)
		}
		return nil, false
	}
	return item, item != nil
}

func (r *Reader) ListArticlesByAuthor(ctx context.Context, authorID string) []model.Article {
	if full, ok := cachestore.Get[model.ArticlePage](r.store, model.EntityArticles); ok {
		return filterByAuthor(full.Items, authorID)
	}

	items, err := r.source.ListArticlesByAuthor(ctx, authorID)
	if err != nil {
		log.Warn().Msgf("[reader] upstream unavailable for author %s, serving stale cache: %s", authorID, err)
		if full, ok := cachestore.GetStale[model.ArticlePage](r.store, model.EntityArticles); ok {
			return filterByAuthor(full.Items, authorID)
		}
		return []model.Article{}
	}
	return items
}

func (r *Reader) ListTeamMembers(ctx context.Context) []model.TeamMember {
	return readThrough(r, model.EntityTeam, func() (model.TeamList, error) {
		items, err := r.source.ListTeamMembers(ctx)
		return model.TeamList(items), err
	})
}

func (r *Reader) GetTeamMemberByID(ctx context.Context, id string) (*model.TeamMember, bool) {
	for _, m := range r.ListTeamMembers(ctx) {
		if m.ID == id {
			return &m, true
		}
	}
	return nil, false
}

func (r *Reader) ListQuotes(ctx context.Context) []model.Quote {
	return readThrough(r, model.EntityQuotes, func() (model.QuoteList, error) {
		items, err := r.source.ListQuotes(ctx)
		return model.QuoteList(items), err
	})
}

// QuoteOfDay picks a deterministic quote from the cached collection by day
// of year, so one day shows one quote without another upstream endpoint.
func (r *Reader) QuoteOfDay(ctx context.Context) (*model.Quote, bool) {
	quotes := r.ListQuotes(ctx)
	if len(quotes) == 0 {
		q, err := r.source.QuoteOfDay(ctx)
		if err != nil || q == nil {
			return nil, false
		}
		return q, true
	}
	q := quotes[r.clk.Now().YearDay()%len(quotes)]
	return &q, true
}

// articlePage is the read-through for the paginated articles collection: the
// full collection is cached once and pages are computed over it locally.
func (r *Reader) articlePage(ctx context.Context) model.ArticlePage {
	return readThrough(r, model.EntityArticles, func() (model.ArticlePage, error) {
		items, total, err := r.source.ListArticles(ctx, 1, r.cfg.FullPageSize, "")
		return model.ArticlePage{Items: items, Total: total}, err
	})
}

// readThrough implements the cache -> source -> stale-cache -> empty ladder
// shared by every collection read. Misses are coalesced per entity so a
// burst of readers produces a single upstream call.
func readThrough[T model.Validatable](r *Reader, e model.Entity, fetch func() (T, error)) T {
	if data, ok := cachestore.Get[T](r.store, e); ok {
		return data
	}

	v, _, _ := r.group.Do(e.String(), func() (any, error) {
		data, err := fetch()
		if err != nil {
			log.Warn().Msgf("[reader] upstream unavailable for %s, serving stale cache: %s", e, err)
			if stale, ok := cachestore.GetStale[T](r.store, e); ok {
				return stale, nil
			}
			var zero T
			return zero, nil
		}

		if putErr := cachestore.Put(r.store, e, data); putErr != nil && putErr != cachestore.ErrLockBusy {
			log.Err(putErr).Msgf("[reader] failed to populate cache for %s", e)
		}
		return data, nil
	})

	return v.(T)
}

func paginate(items []model.Article, page, pageSize int) []model.Article {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []model.Article{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

func findArticle(items []model.Article, id string) (*model.Article, bool) {
	for _, a := range items {
		if a.ID == id {
			return &a, true
		}
	}
	return nil, false
}

func filterByAuthor(items []model.Article, authorID string) []model.Article {
	out := make([]model.Article, 0, len(items))
	for _, a := range items {
		if a.AuthorID == authorID {
			out = append(out, a)
		}
	}
	return out
}
