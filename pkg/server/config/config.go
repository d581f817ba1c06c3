package fasthttpconfig

import (
	"time"
)

type Configurator interface {
	GetHttpServerName() string
	GetHttpServerPort() string
	GetHttpServerShutDownTimeout() time.Duration
	GetHttpServerRequestTimeout() time.Duration
	IsPrometheusMetricsEnabled() bool
}

type HttpServer struct {
	// ServerName is a name of the shared server.
	ServerName string `mapstructure:"SERVER_NAME"`
	// ServerPort is a port for the shared server (admin/read API, /probe, /metrics).
	ServerPort string `mapstructure:"SERVER_PORT"`
	// ServerShutDownTimeout is a duration value before the server will be closed forcefully.
	ServerShutDownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
	// ServerRequestTimeout is a timeout value for close request forcefully.
	ServerRequestTimeout time.Duration `mapstructure:"SERVER_REQUEST_TIMEOUT"`
	// IsEnabledPrometheusMetrics defines whether prometheus metrics will be enabled on the server.
	IsEnabledPrometheusMetrics bool `mapstructure:"IS_PROMETHEUS_METRICS_ENABLED"`
}

func (c HttpServer) WithDefaults() HttpServer {
	if c.ServerName == "" {
		c.ServerName = "ContentCache"
	}
	if c.ServerPort == "" {
		c.ServerPort = ":8020"
	}
	if c.ServerShutDownTimeout == 0 {
		c.ServerShutDownTimeout = 5 * time.Second
	}
	if c.ServerRequestTimeout == 0 {
		c.ServerRequestTimeout = time.Minute
	}
	return c
}

func (c HttpServer) GetHttpServerName() string {
	return c.ServerName
}

func (c HttpServer) GetHttpServerPort() string {
	return c.ServerPort
}

func (c HttpServer) GetHttpServerShutDownTimeout() time.Duration {
	return c.ServerShutDownTimeout
}

func (c HttpServer) GetHttpServerRequestTimeout() time.Duration {
	return c.ServerRequestTimeout
}

func (c HttpServer) IsPrometheusMetricsEnabled() bool {
	return c.IsEnabledPrometheusMetrics
}
