// Package server exposes session supervision over HTTP: a JSON REST
// API for snapshots and sidecar signals, a WebSocket feed of state
// transitions, and Prometheus metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jat-tools/jat/internal/cache"
	"github.com/jat-tools/jat/internal/logging"
	"github.com/jat-tools/jat/internal/monitor"
	"github.com/jat-tools/jat/internal/session"
)

// Server serves the supervision API. Construct with New.
type Server struct {
	addr    string
	svc     *session.Service
	mon     *monitor.Monitor
	hub     *hub
	cache   *cache.TTL[string, []byte]
	metrics *metrics
	logger  *logging.Logger
}

// New creates a server. cacheTTL bounds how stale a served session list
// may be; zero disables caching. If mon is non-nil its state
// transitions are broadcast to WebSocket clients.
func New(addr string, svc *session.Service, mon *monitor.Monitor, cacheTTL time.Duration, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Server{
		addr:    addr,
		svc:     svc,
		mon:     mon,
		hub:     newHub(logger),
		cache:   cache.NewTTL[string, []byte](cacheTTL),
		metrics: newMetrics(),
		logger:  logger.WithComponent("server"),
	}
	if mon != nil {
		mon.OnStateChange(s.broadcastStateChange)
	}
	return s
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{name}", s.handleGetSession)
	mux.HandleFunc("GET /api/sessions/{name}/state", s.handleGetState)
	mux.HandleFunc("GET /api/sessions/{name}/output", s.handleGetOutput)
	mux.HandleFunc("GET /api/sessions/{name}/activity", s.handleGetActivity)
	mux.HandleFunc("GET /api/sessions/{name}/question", s.handleGetQuestion)
	mux.HandleFunc("GET /api/sessions/{name}/signal", s.handleGetSignal)
	mux.HandleFunc("DELETE /api/sessions/{name}/signal", s.handleClearSignal)
	mux.HandleFunc("POST /api/sessions/{name}/keys", s.handleSendKeys)

	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return s.withRequestLogging(corsMiddleware(mux))
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

// withRequestLogging tags every request with an ID and logs it.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.metrics.httpRequests.WithLabelValues(r.Method, r.URL.Path).Inc()
		s.logger.WithRequest(requestID).Debug("request",
			"method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
