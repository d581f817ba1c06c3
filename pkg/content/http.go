package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/glasswing/content-cache/pkg/config"
	"github.com/glasswing/content-cache/pkg/model"
)

// HTTPSource fetches entities from the provider's JSON API. The provider is
// flaky under load, so requests go through a retrying client with backoff;
// every call still carries a hard timeout so nothing blocks the scheduler
// for unbounded time.
type HTTPSource struct {
	cfg    config.Upstream
	client *retryablehttp.Client
}

func NewHTTPSource(cfg config.Upstream) *HTTPSource {
	cfg = cfg.WithDefaults()

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.HTTPClient.Timeout = cfg.RequestTimeout
	client.Logger = nil

	return &HTTPSource{cfg: cfg, client: client}
}

type articlePageDTO struct {
	Items []model.Article `json:"items"`
	Total int             `json:"total"`
}

func (s *HTTPSource) ListArticles(ctx context.Context, page, pageSize int, search string) ([]model.Article, int, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("pageSize", fmt.Sprint(pageSize))
	if search != "" {
		q.Set("search", search)
	}

	var dto articlePageDTO
	if err := s.get(ctx, "/articles", q, &dto); err != nil {
		return nil, 0, err
	}
	return dto.Items, dto.Total, nil
}

func (s *HTTPSource) ListFeaturedArticles(ctx context.Context) ([]model.Article, error) {
	var items []model.Article
	if err := s.get(ctx, "/articles/featured", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *HTTPSource) ListRecentArticles(ctx context.Context, limit int) ([]model.Article, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))

	var items []model.Article
	if err := s.get(ctx, "/articles/recent", q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *HTTPSource) GetArticleByID(ctx context.Context, id string) (*model.Article, error) {
	var item model.Article
	found, err := s.getOne(ctx, "/articles/"+url.PathEscape(id), &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

func (s *HTTPSource) ListArticlesByAuthor(ctx context.Context, authorID string) ([]model.Article, error) {
	var items []model.Article
	if err := s.get(ctx, "/authors/"+url.PathEscape(authorID)+"/articles", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *HTTPSource) ListTeamMembers(ctx context.Context) ([]model.TeamMember, error) {
	var items []model.TeamMember
	if err := s.get(ctx, "/team", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *HTTPSource) GetTeamMemberByID(ctx context.Context, id string) (*model.TeamMember, error) {
	var item model.TeamMember
	found, err := s.getOne(ctx, "/team/"+url.PathEscape(id), &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

func (s *HTTPSource) ListQuotes(ctx context.Context) ([]model.Quote, error) {
	var items []model.Quote
	if err := s.get(ctx, "/quotes", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *HTTPSource) QuoteOfDay(ctx context.Context) (*model.Quote, error) {
	var item model.Quote
	found, err := s.getOne(ctx, "/quotes/of-the-day", &item)
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, query url.Values, v any) error {
	found, err := s.request(ctx, path, query, v)
	if err != nil {
		return err
	}
	if !found {
		return errors.New("upstream returned not found for collection " + path)
	}
	return nil
}

// getOne is the by-id variant: a 404 is an absent item, not an error.
func (s *HTTPSource) getOne(ctx context.Context, path string, v any) (bool, error) {
	return s.request(ctx, path, nil, v)
}

func (s *HTTPSource) request(ctx context.Context, path string, query url.Values, v any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	target := s.cfg.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("request upstream %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("upstream %s responded %d", path, resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("decode upstream %s response: %w", path, err)
	}
	return true, nil
}
