// Package server exposes dashboard aggregations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"evedash/internal/aggregate"
	"evedash/internal/logger"
	"evedash/internal/pipeline"
)

// ErrInvalidQuery marks a malformed query parameter.
var ErrInvalidQuery = errors.New("invalid query")

// Config holds HTTP listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves the dashboard API.
type Server struct {
	router    *chi.Mux
	dashboard *pipeline.Dashboard
	gatherer  prometheus.Gatherer
}

// New builds the router. A nil gatherer serves the default registry.
func New(dashboard *pipeline.Dashboard, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		router:    chi.NewRouter(),
		dashboard: dashboard,
		gatherer:  gatherer,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/aggregate", s.aggregate)
		r.Get("/charts", s.charts)
		r.Post("/snapshots", s.publish)
	})
}

// ServeHTTP lets Server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Infof("Shutting down HTTP API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"events": s.dashboard.Events(),
	})
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) {
	filter, err := dateFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, _ := s.dashboard.Aggregate(filter)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) charts(w http.ResponseWriter, r *http.Request) {
	filter, err := dateFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts, err := seriesOptions(r, s.dashboard.SeriesOptions())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, _ := s.dashboard.Aggregate(filter)
	writeJSON(w, http.StatusOK, aggregate.Charts(res, opts))
}

func (s *Server) publish(w http.ResponseWriter, r *http.Request) {
	filter, err := dateFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snapshot, err := s.dashboard.Publish(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func dateFilter(r *http.Request) (aggregate.DateFilter, error) {
	q := r.URL.Query()
	return aggregate.ParseDateFilter(q.Get("start"), q.Get("end"))
}

func seriesOptions(r *http.Request, defaults aggregate.SeriesOptions) (aggregate.SeriesOptions, error) {
	q := r.URL.Query()
	opts := defaults

	if raw := q.Get("order"); raw != "" {
		order, err := aggregate.ParseOrder(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		opts.Order = order
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return opts, fmt.Errorf("%w: limit must be a non-negative integer, got %q", ErrInvalidQuery, raw)
		}
		opts.Limit = limit
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		defer func() {
			logger.L().Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(started)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote", r.RemoteAddr),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
