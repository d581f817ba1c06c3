package api

import (
	"context"
	"encoding/json"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/glasswing/content-cache/pkg/reader"
	"github.com/glasswing/content-cache/pkg/refresh"
)

var notFoundResponseBytes = []byte(`{
	  "status": 404,
	  "error": "Not Found"
	}`)

// ContentController is the thin JSON surface over the Cache Read API. It
// never fails for transport reasons: the reader degrades to stale cache or
// empty values on its own. Article listing views also nudge the on-demand
// refresh path, debounced inside the orchestrator.
type ContentController struct {
	ctx    context.Context
	reader *reader.Reader
	orch   *refresh.Orchestrator
}

func NewContentController(ctx context.Context, rdr *reader.Reader, orch *refresh.Orchestrator) *ContentController {
	return &ContentController{ctx: ctx, reader: rdr, orch: orch}
}

func (c *ContentController) ListArticles(r *fasthttp.RequestCtx) {
	go c.orch.TriggerOnDemand()

	page := r.QueryArgs().GetUintOrZero("page")
	pageSize := r.QueryArgs().GetUintOrZero("pageSize")
	search := string(r.QueryArgs().Peek("search"))

	items, total := c.reader.ListArticles(c.ctx, page, pageSize, search)
	c.respondData(r, map[string]any{"items": items, "total": total})
}

func (c *ContentController) ListFeatured(r *fasthttp.RequestCtx) {
	c.respondData(r, c.reader.ListFeaturedArticles(c.ctx))
}

func (c *ContentController) ListRecent(r *fasthttp.RequestCtx) {
	limit := r.QueryArgs().GetUintOrZero("limit")
	c.respondData(r, c.reader.ListRecentArticles(c.ctx, limit))
}

func (c *ContentController) GetArticle(r *fasthttp.RequestCtx) {
	id, _ := r.UserValue("id").(string)
	item, found := c.reader.GetArticleByID(c.ctx, id)
	if !found {
		c.respondNotFound(r)
		return
	}
	c.respondData(r, item)
}

func (c *ContentController) ListByAuthor(r *fasthttp.RequestCtx) {
	id, _ := r.UserValue("id").(string)
	c.respondData(r, c.reader.ListArticlesByAuthor(c.ctx, id))
}

func (c *ContentController) ListTeam(r *fasthttp.RequestCtx) {
	c.respondData(r, c.reader.ListTeamMembers(c.ctx))
}

func (c *ContentController) GetTeamMember(r *fasthttp.RequestCtx) {
	id, _ := r.UserValue("id").(string)
	item, found := c.reader.GetTeamMemberByID(c.ctx, id)
	if !found {
		c.respondNotFound(r)
		return
	}
	c.respondData(r, item)
}

func (c *ContentController) ListQuotes(r *fasthttp.RequestCtx) {
	c.respondData(r, c.reader.ListQuotes(c.ctx))
}

func (c *ContentController) QuoteOfDay(r *fasthttp.RequestCtx) {
	item, found := c.reader.QuoteOfDay(c.ctx)
	if !found {
		c.respondNotFound(r)
		return
	}
	c.respondData(r, item)
}

func (c *ContentController) respondData(r *fasthttp.RequestCtx, data any) {
	b, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		log.Err(err).Msg("[content-controller] failed to marshal response")
		r.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	if _, err = r.Write(b); err != nil {
		log.Err(err).Msg("[content-controller] failed to write into *fasthttp.RequestCtx")
	}
}

func (c *ContentController) respondNotFound(r *fasthttp.RequestCtx) {
	r.SetStatusCode(fasthttp.StatusNotFound)
	if _, err := r.Write(notFoundResponseBytes); err != nil {
		log.Err(err).Msg("[content-controller] failed to write into *fasthttp.RequestCtx")
	}
}

func (c *ContentController) AddRoute(router *router.Router) {
	router.GET("/api/v1/articles", c.ListArticles)
	router.GET("/api/v1/articles/featured", c.ListFeatured)
	router.GET("/api/v1/articles/recent", c.ListRecent)
	router.GET("/api/v1/articles/{id}", c.GetArticle)
	router.GET("/api/v1/authors/{id}/articles", c.ListByAuthor)
	router.GET("/api/v1/team", c.ListTeam)
	router.GET("/api/v1/team/{id}", c.GetTeamMember)
	router.GET("/api/v1/quotes", c.ListQuotes)
	router.GET("/api/v1/quotes/of-the-day", c.QuoteOfDay)
}
