package content

import (
	"context"

	"github.com/glasswing/content-cache/pkg/model"
)

// Source is the upstream structured-data provider, abstracted away from its
// query language. A nil item with a nil error means "not found".
type Source interface {
	ListArticles(ctx context.Context, page, pageSize int, search string) ([]model.Article, int, error)
	ListFeaturedArticles(ctx context.Context) ([]model.Article, error)
	ListRecentArticles(ctx context.Context, limit int) ([]model.Article, error)
	GetArticleByID(ctx context.Context, id string) (*model.Article, error)
	ListArticlesByAuthor(ctx context.Context, authorID string) ([]model.Article, error)
	ListTeamMembers(ctx context.Context) ([]model.TeamMember, error)
	GetTeamMemberByID(ctx context.Context, id string) (*model.TeamMember, error)
	ListQuotes(ctx context.Context) ([]model.Quote, error)
	QuoteOfDay(ctx context.Context) (*model.Quote, error)
}

// MediaFetcher downloads bytes for one media URL, returning the payload and
// its content type.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}
