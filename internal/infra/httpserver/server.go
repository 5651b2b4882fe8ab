// Package httpserver exposes the bot's health and prometheus endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Runner reports whether the greeting loop is running.
type Runner interface {
	Running() bool
}

// BackupStatus reports whether a database backup is running.
type BackupStatus interface {
	InProgress() bool
}

type Server struct {
	srv       *http.Server
	db        Pinger
	scheduler Runner
	backups   BackupStatus // optional
	logger    *logrus.Entry
}

func New(addr string, db Pinger, scheduler Runner, logger *logrus.Entry) *Server {
	s := &Server{db: db, scheduler: scheduler, logger: logger}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// WithBackups lets /healthz tell a database held by a backup from one that is down.
func (s *Server) WithBackups(b BackupStatus) *Server {
	s.backups = b
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Scheduler string `json:"scheduler"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Scheduler: "running"}
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && s.backups != nil && s.backups.InProgress() {
			s.logger.Debug("Health check: database busy with a backup")
			resp.Database = "busy"
		} else {
			s.logger.WithError(err).Warn("Health check: database unreachable")
			resp.Status, resp.Database = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	if !s.scheduler.Running() {
		resp.Status, resp.Scheduler = "degraded", "stopped"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.srv.Addr).Info("HTTP server starting")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
