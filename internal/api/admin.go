package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/glasswing/content-cache/pkg/cachestore"
	"github.com/glasswing/content-cache/pkg/model"
	"github.com/glasswing/content-cache/pkg/prefetch"
	"github.com/glasswing/content-cache/pkg/refresh"
)

// Admin trigger API, intended for publish-event webhooks and operator
// actions when upstream content changes.
const (
	AdminRefreshAllPath    = "/api/v1/admin/refresh"
	AdminRefreshOnePath    = "/api/v1/admin/refresh/{entity}"
	AdminInvalidateAllPath = "/api/v1/admin/invalidate"
	AdminInvalidateOnePath = "/api/v1/admin/invalidate/{entity}"
	AdminPurgeMediaPath    = "/api/v1/admin/media/purge"
)

type adminResponse struct {
	Status   int      `json:"status"`
	Entities []string `json:"entities"`
	Purged   int      `json:"purged,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type AdminController struct {
	ctx   context.Context
	orch  *refresh.Orchestrator
	store *cachestore.Store
	media *prefetch.Store
}

func NewAdminController(ctx context.Context, orch *refresh.Orchestrator, store *cachestore.Store, media *prefetch.Store) *AdminController {
	return &AdminController{ctx: ctx, orch: orch, store: store, media: media}
}

// RefreshAll resets cooldowns and refreshes every entity in priority order.
func (c *AdminController) RefreshAll(r *fasthttp.RequestCtx) {
	results := c.orch.EmergencyRefreshAll(c.ctx)

	acted := make([]string, 0, len(results))
	var failed error
	for _, res := range results {
		if res.Status == refresh.StatusRefreshed {
			acted = append(acted, res.Entity.String())
		}
		if res.Err != nil {
			failed = res.Err
		}
	}

	status := fasthttp.StatusOK
	errMsg := ""
	if failed != nil {
		status = fasthttp.StatusBadGateway
		errMsg = failed.Error()
	}
	c.respond(r, adminResponse{Status: status, Entities: acted, Error: errMsg})
}

// RefreshOne refreshes a single entity by name, bypassing its cooldown.
func (c *AdminController) RefreshOne(r *fasthttp.RequestCtx) {
	name, _ := r.UserValue("entity").(string)

	result, err := c.orch.RefreshEntity(c.ctx, name)
	if err != nil {
		c.respond(r, adminResponse{Status: fasthttp.StatusBadRequest, Entities: []string{}, Error: err.Error()})
		return
	}
	if result.Err != nil {
		c.respond(r, adminResponse{Status: fasthttp.StatusBadGateway, Entities: []string{}, Error: result.Err.Error()})
		return
	}
	c.respond(r, adminResponse{Status: fasthttp.StatusOK, Entities: []string{result.Entity.String()}})
}

// InvalidateAll invalidates every entity independently and reports the ones
// actually invalidated; a held lock on one key never blocks the rest.
func (c *AdminController) InvalidateAll(r *fasthttp.RequestCtx) {
	acted, err := c.store.InvalidateAll()

	names := make([]string, 0, len(acted))
	for _, e := range acted {
		names = append(names, e.String())
	}

	status := fasthttp.StatusOK
	errMsg := ""
	if err != nil {
		status = fasthttp.StatusInternalServerError
		errMsg = err.Error()
	}
	c.respond(r, adminResponse{Status: status, Entities: names, Error: errMsg})
}

func (c *AdminController) InvalidateOne(r *fasthttp.RequestCtx) {
	name, _ := r.UserValue("entity").(string)

	e, err := model.ParseEntity(name)
	if err != nil {
		c.respond(r, adminResponse{Status: fasthttp.StatusBadRequest, Entities: []string{}, Error: err.Error()})
		return
	}

	if err = c.store.Invalidate(e); err != nil {
		status := fasthttp.StatusInternalServerError
		if errors.Is(err, cachestore.ErrLockBusy) {
			status = fasthttp.StatusConflict
		}
		c.respond(r, adminResponse{Status: status, Entities: []string{}, Error: err.Error()})
		return
	}
	c.respond(r, adminResponse{Status: fasthttp.StatusOK, Entities: []string{e.String()}})
}

// PurgeMedia empties the content-addressed media store; purged artifacts are
// re-fetched on the owning entities' next refresh.
func (c *AdminController) PurgeMedia(r *fasthttp.RequestCtx) {
	purged, err := c.media.Purge()
	if err != nil {
		c.respond(r, adminResponse{Status: fasthttp.StatusInternalServerError, Entities: []string{}, Purged: purged, Error: err.Error()})
		return
	}
	log.Info().Msgf("[admin-controller] purged %d media artifacts", purged)
	c.respond(r, adminResponse{Status: fasthttp.StatusOK, Entities: []string{}, Purged: purged})
}

func (c *AdminController) respond(r *fasthttp.RequestCtx, resp adminResponse) {
	r.SetStatusCode(resp.Status)
	b, err := json.Marshal(resp)
	if err != nil {
		log.Err(err).Msg("[admin-controller] failed to marshal response")
		return
	}
	if _, err = r.Write(b); err != nil {
		log.Err(err).Msg("[admin-controller] failed to write into *fasthttp.RequestCtx")
	}
}

func (c *AdminController) AddRoute(router *router.Router) {
	router.POST(AdminRefreshAllPath, c.RefreshAll)
	router.POST(AdminRefreshOnePath, c.RefreshOne)
	router.POST(AdminInvalidateAllPath, c.InvalidateAll)
	router.POST(AdminInvalidateOnePath, c.InvalidateOne)
	router.POST(AdminPurgeMediaPath, c.PurgeMedia)
}
