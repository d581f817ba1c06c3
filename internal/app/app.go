package app

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/glasswing/content-cache/internal/app/config"
	"github.com/glasswing/content-cache/internal/server"
	"github.com/glasswing/content-cache/pkg/cachestore"
	"github.com/glasswing/content-cache/pkg/content"
	"github.com/glasswing/content-cache/pkg/flock"
	"github.com/glasswing/content-cache/pkg/liveness"
	"github.com/glasswing/content-cache/pkg/prefetch"
	"github.com/glasswing/content-cache/pkg/reader"
	"github.com/glasswing/content-cache/pkg/refresh"
	"github.com/glasswing/content-cache/pkg/schedule"
)

// App wires the caching subsystem together: schedule, persisted store,
// upstream client, refresh orchestrator, pre-fetch pipeline, read-through
// reader and the HTTP surface. Every dependency is constructed once here and
// injected by reference; nothing is reached through ambient globals.
type App struct {
	cfg    *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	probe  liveness.Prober
	orch   *refresh.Orchestrator
	server server.Http
}

func NewApp(ctx context.Context, cfg *config.Config, probe liveness.Prober) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)

	clk := clock.New()

	sched, err := schedule.New(cfg.Schedule)
	if err != nil {
		cancel()
		return nil, err
	}

	locker, err := flock.NewFileLocker(cfg.CacheStore, clk)
	if err != nil {
		cancel()
		return nil, err
	}

	store, err := cachestore.New(cfg.CacheStore, sched, locker, clk)
	if err != nil {
		cancel()
		return nil, err
	}

	mediaStore, err := prefetch.NewStore(cfg.Prefetch)
	if err != nil {
		cancel()
		return nil, err
	}

	source := content.NewHTTPSource(cfg.Upstream)
	fetcher := content.NewHTTPMediaFetcher(cfg.Prefetch.FetchTimeout)
	pipeline := prefetch.New(cfg.Prefetch, fetcher, mediaStore)
	orch := refresh.New(ctx, cfg.Refresh, cfg.Upstream, sched, store, source, pipeline, clk)
	rdr := reader.New(store, source, cfg.Upstream, clk)

	srv, err := server.New(ctx, cfg, rdr, orch, store, mediaStore, probe)
	if err != nil {
		cancel()
		return nil, err
	}

	return &App{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		probe:  probe,
		orch:   orch,
		server: srv,
	}, nil
}

// Start launches the refresh schedules and the HTTP server, blocking until
// the server exits.
func (a *App) Start() {
	defer a.stop()

	log.Info().Msg("starting content cache app")

	a.orch.Start()
	a.probe.Watch(a)

	waitCh := make(chan struct{})
	go func() {
		defer close(waitCh)
		a.server.Start()
	}()

	log.Info().Msg("content cache app has been started")

	<-waitCh
}

func (a *App) stop() {
	log.Info().Msg("stopping content cache app")
	a.orch.Stop()
	a.cancel()
	log.Info().Msg("content cache app has been stopped")
}

// IsAlive is called by the liveness probe.
func (a *App) IsAlive(_ context.Context) bool {
	if !a.server.IsAlive() {
		log.Info().Msg("http server has gone away")
		return false
	}
	return true
}
