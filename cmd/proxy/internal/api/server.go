package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hasirciogluhq/xminecraft-proxy/cmd/proxy/internal/logger"
)

// HealthServer exposes liveness, readiness and Prometheus metrics over HTTP.
type HealthServer struct {
	server *http.Server
	ready  atomic.Bool
}

// NewHealthServer serves /metrics from gatherer. Readiness starts false.
func NewHealthServer(addr string, gatherer prometheus.Gatherer) *HealthServer {
	hs := &HealthServer{}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", hs.handleHealth)
	r.Get("/ready", hs.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	hs.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return hs
}

// Handler returns the router, for use with httptest.
func (s *HealthServer) Handler() http.Handler {
	return s.server.Handler
}

// Start binds the listener synchronously so a busy port is reported to the
// caller, then serves in the background.
func (s *HealthServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	go func() {
		logger.Info("Health server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health server error", "error", err)
		}
	}()
	return nil
}

func (s *HealthServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HealthServer) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready.Load() {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
	}
}
