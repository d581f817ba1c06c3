package main

import (
	"context"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/glasswing/content-cache/internal/app"
	"github.com/glasswing/content-cache/internal/app/config"
	"github.com/glasswing/content-cache/pkg/liveness"
)

// Initializes environment variables from .env files and binds them using Viper.
// This allows overriding any value via environment variables.
func init() {
	// Load .env and .env.local files for configuration overrides.
	_ = godotenv.Overload(".env", ".env.local")

	viper.AutomaticEnv()
	for _, key := range []string{
		"APP_DEBUG",
		"SERVER_NAME",
		"SERVER_PORT",
		"SERVER_SHUTDOWN_TIMEOUT",
		"SERVER_REQUEST_TIMEOUT",
		"IS_PROMETHEUS_METRICS_ENABLED",
		"LIVENESS_PROBE_FAILED_TIMEOUT",
		"CACHE_DIR",
		"CACHE_LOCK_DIR",
		"CACHE_LOCK_STALE_AFTER",
		"BUSINESS_TIMEZONE",
		"BUSINESS_DAYS",
		"BUSINESS_HOUR_START",
		"BUSINESS_HOUR_END",
		"CRITICAL_BUSINESS_INTERVAL",
		"CRITICAL_OFF_HOURS_INTERVAL",
		"CRITICAL_CACHE_EXPIRY",
		"IMPORTANT_BUSINESS_INTERVAL",
		"IMPORTANT_OFF_HOURS_INTERVAL",
		"IMPORTANT_CACHE_EXPIRY",
		"STABLE_BUSINESS_INTERVAL",
		"STABLE_OFF_HOURS_INTERVAL",
		"STABLE_CACHE_EXPIRY",
		"MIN_REFRESH_INTERVAL",
		"ON_DEMAND_COOLDOWN",
		"SCHEDULE_MONITOR_INTERVAL",
		"UPSTREAM_BASE_URL",
		"UPSTREAM_REQUEST_TIMEOUT",
		"UPSTREAM_RETRY_MAX",
		"UPSTREAM_FULL_PAGE_SIZE",
		"UPSTREAM_RECENT_LIMIT",
		"MEDIA_DIR",
		"PREFETCH_GENERIC_WORKERS",
		"PREFETCH_RATE_LIMITED_WORKERS",
		"PREFETCH_RATE_LIMITED_BATCH_SIZE",
		"PREFETCH_RATE_LIMITED_DELAY",
		"PREFETCH_RATE_LIMITED_HOSTS",
		"PREFETCH_FETCH_TIMEOUT",
	} {
		_ = viper.BindEnv(key)
	}
}

// setMaxProcs automatically sets the optimal GOMAXPROCS value (CPU parallelism)
// based on the available CPUs and cgroup/docker CPU quotas (uses automaxprocs).
func setMaxProcs() {
	if _, err := maxprocs.Set(); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

// loadCfg loads the configuration struct from environment variables
// and fills derived defaults.
func loadCfg() *config.Config {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Err(err).Msg("[main] failed to unmarshal config from envs")
		panic(err)
	}
	cfg.Prepare()

	if cfg.AppDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return cfg
}

// Main entrypoint: configures and starts the content cache application.
func main() {
	// Root context cancelled on SIGINT/SIGTERM for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	setMaxProcs()

	cfg := loadCfg()

	probe := liveness.NewProbe(cfg.LivenessProbeTimeout)

	application, err := app.NewApp(ctx, cfg, probe)
	if err != nil {
		log.Err(err).Msg("[main] failed to init content cache app")
		return
	}

	waitCh := make(chan struct{})
	go func() {
		defer close(waitCh)
		application.Start()
	}()

	<-ctx.Done()
	log.Info().Msg("[main] shutdown signal received")
	<-waitCh
}
