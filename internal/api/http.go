// SPDX-License-Identifier: MIT

// Package api provides the daemon's HTTP surface: schedule management, the
// recorder debug log, recording metadata and probes. Core capture
// correctness does not depend on anything in this package.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halamedia/aircheck/internal/health"
	"github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/schedule"
	"github.com/halamedia/aircheck/internal/status"
	"github.com/halamedia/aircheck/internal/store"
	"github.com/halamedia/aircheck/internal/trigger"
)

// RecordingLister exposes stored recording metadata; store.DiskStore
// satisfies it.
type RecordingLister interface {
	List(ctx context.Context) ([]store.Recording, error)
	TotalBytes(ctx context.Context) (int64, error)
}

// SessionLister exposes the live capture sessions; trigger.Engine
// satisfies it.
type SessionLister interface {
	ActiveSessions() []trigger.SessionInfo
}

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	registry   *schedule.Registry
	sessions   SessionLister
	recordings RecordingLister
	statusLog  *status.Log
	health     *health.Manager
}

// NewServer creates the API server.
func NewServer(registry *schedule.Registry, sessions SessionLister, recordings RecordingLister, statusLog *status.Log, healthMgr *health.Manager) *Server {
	return &Server{
		registry:   registry,
		sessions:   sessions,
		recordings: recordings,
		statusLog:  statusLog,
		health:     healthMgr,
	}
}

// Router builds the chi router for the daemon.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/recorder-logs", s.handleRecorderLogs)
		r.Get("/recordings", s.handleListRecordings)
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Post("/", s.handleAddSchedule)
			r.Delete("/{id}", s.handleRemoveSchedule)
			r.Post("/{id}/toggle", s.handleToggleSchedule)
		})
	})

	return r
}

// requestLogger logs one line per request in the daemon's structured format.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger := log.WithComponent("api")
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
