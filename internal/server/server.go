package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/glasswing/content-cache/internal/api"
	"github.com/glasswing/content-cache/internal/app/config"
	"github.com/glasswing/content-cache/pkg/cachestore"
	"github.com/glasswing/content-cache/pkg/liveness"
	"github.com/glasswing/content-cache/pkg/prefetch"
	"github.com/glasswing/content-cache/pkg/prometheus/metrics"
	metricscontroller "github.com/glasswing/content-cache/pkg/prometheus/metrics/controller"
	metricsmiddleware "github.com/glasswing/content-cache/pkg/prometheus/metrics/middleware"
	"github.com/glasswing/content-cache/pkg/reader"
	"github.com/glasswing/content-cache/pkg/refresh"
	httpserver "github.com/glasswing/content-cache/pkg/server"
	"github.com/glasswing/content-cache/pkg/server/controller"
	"github.com/glasswing/content-cache/pkg/server/middleware"
)

var (
	InitFailedErrorMessage        = "[server] init. failed"
	MetricsInitFailedErrorMessage = "[server] init. prometheus metrics failed"
)

// Http interface exposes methods for starting and liveness probing.
type Http interface {
	Start()
	IsAlive() bool
}

// HttpServer composes the admin trigger API, the content read API, the
// liveness probe and the metrics endpoint on one fasthttp server.
type HttpServer struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg           *config.Config
	metrics       *metrics.Metrics
	server        *httpserver.HTTP
	isServerAlive *atomic.Bool
}

func New(
	ctx context.Context,
	cfg *config.Config,
	rdr *reader.Reader,
	orch *refresh.Orchestrator,
	store *cachestore.Store,
	media *prefetch.Store,
	probe liveness.Prober,
) (*HttpServer, error) {
	var err error

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		if err != nil {
			cancel()
		}
	}()

	srv := &HttpServer{
		ctx:           ctx,
		cancel:        cancel,
		cfg:           cfg,
		isServerAlive: &atomic.Bool{},
	}

	if err = srv.initMetrics(); err != nil {
		log.Err(err).Msg(MetricsInitFailedErrorMessage)
		return nil, errors.New(MetricsInitFailedErrorMessage)
	}

	if err = srv.initServer(rdr, orch, store, media, probe); err != nil {
		log.Err(err).Msg(InitFailedErrorMessage)
		return nil, errors.New(InitFailedErrorMessage)
	}

	return srv, nil
}

// Start runs the HTTP server and blocks until it exits.
func (s *HttpServer) Start() {
	defer s.stop()

	waitCh := make(chan struct{})

	go func() {
		defer close(waitCh)
		wg := &sync.WaitGroup{}
		defer wg.Wait()
		s.spawnServer(wg)
	}()

	<-waitCh
}

func (s *HttpServer) stop() {
	s.cancel()
}

func (s *HttpServer) IsAlive() bool {
	return s.isServerAlive.Load()
}

func (s *HttpServer) spawnServer(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer func() {
			s.isServerAlive.Store(false)
			wg.Done()
		}()
		s.isServerAlive.Store(true)
		s.server.ListenAndServe()
	}()
}

func (s *HttpServer) initMetrics() error {
	prometheusMetrics, err := metrics.New()
	if err != nil {
		log.Err(err).Msg(MetricsInitFailedErrorMessage)
		return errors.New(MetricsInitFailedErrorMessage)
	}
	s.metrics = prometheusMetrics
	return nil
}

func (s *HttpServer) initServer(
	rdr *reader.Reader,
	orch *refresh.Orchestrator,
	store *cachestore.Store,
	media *prefetch.Store,
	probe liveness.Prober,
) error {
	server, err := httpserver.New(s.ctx, s.cfg, s.controllers(rdr, orch, store, media, probe), s.middlewares())
	if err != nil {
		log.Err(err).Msg(InitFailedErrorMessage)
		return errors.New(InitFailedErrorMessage)
	}
	s.server = server
	return nil
}

func (s *HttpServer) controllers(
	rdr *reader.Reader,
	orch *refresh.Orchestrator,
	store *cachestore.Store,
	media *prefetch.Store,
	probe liveness.Prober,
) []controller.HttpController {
	controllers := []controller.HttpController{
		api.NewLivenessController(probe),
		api.NewContentController(s.ctx, rdr, orch),
		api.NewAdminController(s.ctx, orch, store, media),
	}
	if s.cfg.IsPrometheusMetricsEnabled() {
		controllers = append(controllers, metricscontroller.NewPrometheusMetrics(s.ctx))
	}
	return controllers
}

func (s *HttpServer) middlewares() []middleware.HttpMiddleware {
	return []middleware.HttpMiddleware{
		/** exec 1st. */ middleware.NewApplicationJsonMiddleware(),
		/** exec 2nd. */ middleware.NewWatermarkMiddleware(s.ctx, s.cfg),
		/** exec 3rd. */ middleware.NewDuration(s.ctx, s.cfg),
		/** exec 4th. */ metricsmiddleware.NewPrometheusMetrics(s.ctx, s.metrics),
	}
}
