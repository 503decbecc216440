package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sifan077/tinylink/config"
	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// Server exposes the link metrics on a dedicated port so scrapes never
// queue behind redirect traffic.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// NewServer builds the metrics server for gatherer. A nil gatherer means the
// default registry, where promauto registers the service and HTTP metrics.
func NewServer(cfg config.PrometheusConfig, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog:          zap.NewStdLog(logger),
		EnableOpenMetrics: true,
	}))

	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
		},
		logger: logger.Named("metrics"),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Handler returns the HTTP handler serving /metrics.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting Prometheus metrics server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
		}
	}()
}

// Shutdown stops accepting scrapes and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
