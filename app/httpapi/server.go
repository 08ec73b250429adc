// Package httpapi holds the HTTP plumbing shared by the module handlers.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
)

// Config selects listener and client limits.
type Config struct {
	Address        string
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
}

// NewRouter builds the API router with request IDs, panic recovery,
// correlation IDs, CORS and the per-resource mutation limiter.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationMiddleware)
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.Use(LimitMutations(NewMutationLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// correlationMiddleware carries X-Correlation-ID, or the request ID, into the
// context so service logs and published events share it.
func correlationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(attr.WithCorrelationID(r.Context(), id)))
	})
}

// Server runs the API listener and, on a separate address, /metrics.
type Server struct {
	api     *http.Server
	metrics *http.Server
	logger  *slog.Logger
}

// NewServer wraps handler with otelhttp. metricsAddr may be empty to skip the
// metrics listener.
func NewServer(addr string, handler http.Handler, metricsAddr string, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		api: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(handler, "marathon-draft-api"),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		s.metrics = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	serve := func(srv *http.Server, name string) {
		s.logger.InfoContext(ctx, "HTTP listener starting", attr.String("listener", name), attr.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s listener: %w", name, err)
		}
	}

	go serve(s.api, "api")
	if s.metrics != nil {
		go serve(s.metrics, "metrics")
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.api.Shutdown(shutdownCtx)
	if s.metrics != nil {
		err = errors.Join(err, s.metrics.Shutdown(shutdownCtx))
	}
	return err
}
