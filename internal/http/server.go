// Package http provides the operational HTTP server: health probes and
// Prometheus metrics for the voice playback service.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"subvox/internal/core"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck reports whether the service's dependencies are usable.
// A nil error means ready.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics

	readyMu    sync.RWMutex
	readyCheck ReadinessCheck
}

// Metrics implements core.Metrics on top of Prometheus collectors.
type Metrics struct {
	IntentsTotal   *prometheus.CounterVec
	ScrobblesTotal prometheus.Counter
	RefillsTotal   *prometheus.CounterVec
	QueueRemaining prometheus.Gauge
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		IntentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subvox_intents_total",
				Help: "Total number of voice intents handled",
			},
			[]string{"intent", "status"},
		),
		ScrobblesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subvox_scrobbles_total",
				Help: "Total number of play events reported to the catalog server",
			},
		),
		RefillsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subvox_refills_total",
				Help: "Total number of continuation batch fetches",
			},
			[]string{"mode", "status"},
		),
		QueueRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "subvox_queue_remaining_tracks",
				Help: "Heuristic count of unplayed tracks in the playback queue",
			},
		),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		metrics.IntentsTotal,
		metrics.ScrobblesTotal,
		metrics.RefillsTotal,
		metrics.QueueRemaining,
	)

	s := &Server{
		config:  config,
		logger:  logger,
		metrics: metrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// SetReadinessCheck installs the dependency probe behind /readyz. Without
// one, readiness degrades to liveness.
func (s *Server) SetReadinessCheck(check ReadinessCheck) {
	s.readyMu.Lock()
	s.readyCheck = check
	s.readyMu.Unlock()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"subvox"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	s.readyMu.RLock()
	check := s.readyCheck
	s.readyMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	if check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := check(ctx); err != nil {
			s.logger.Debug("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not_ready","service":"subvox"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready","service":"subvox"}`))
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (m *Metrics) RecordIntent(intent, status string) {
	m.IntentsTotal.WithLabelValues(intent, status).Inc()
}

func (m *Metrics) RecordScrobble() {
	m.ScrobblesTotal.Inc()
}

func (m *Metrics) RecordRefill(mode, status string) {
	m.RefillsTotal.WithLabelValues(mode, status).Inc()
}

func (m *Metrics) SetQueueRemaining(count int) {
	m.QueueRemaining.Set(float64(count))
}
