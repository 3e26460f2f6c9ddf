// Package httpapi exposes the scheduler, ingestion pipeline, NOOS
// engine and download builder over HTTP, grounded on the teacher's
// internal/api.ControlServer chi wiring (router + middleware.Logger +
// middleware.Recoverer), generalized from a single localhost-only
// download-control surface to the full upload/download/task/results
// surface of §6.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/increff/noos-service/internal/audit"
	"github.com/increff/noos-service/internal/config"
	"github.com/increff/noos-service/internal/download"
	"github.com/increff/noos-service/internal/ingest"
	"github.com/increff/noos-service/internal/noos"
	"github.com/increff/noos-service/internal/scheduler"
	"github.com/increff/noos-service/internal/storage"
)

// Server wires every HTTP endpoint of §6 to the core components.
type Server struct {
	router    *chi.Mux
	server    *http.Server
	storage   *storage.Storage
	scheduler *scheduler.Scheduler
	pipeline  *ingest.Pipeline
	engine    *noos.Engine
	builder   *download.Builder
	config    *config.ConfigManager
	audit     *audit.Logger
	logger    *slog.Logger
}

func New(
	s *storage.Storage,
	sched *scheduler.Scheduler,
	pipeline *ingest.Pipeline,
	engine *noos.Engine,
	builder *download.Builder,
	cfg *config.ConfigManager,
	auditLogger *audit.Logger,
	logger *slog.Logger,
) *Server {
	srv := &Server{
		router:    chi.NewRouter(),
		storage:   s,
		scheduler: sched,
		pipeline:  pipeline,
		engine:    engine,
		builder:   builder,
		config:    cfg,
		audit:     auditLogger,
		logger:    logger,
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api/file", func(r chi.Router) {
		r.Post("/upload/{entity}", s.handleUploadSync)
		r.Post("/upload/{entity}/async", s.handleUploadAsync)
		r.Get("/download/{entity}", s.handleDownloadSync)
		r.Post("/download/{entity}/async", s.handleDownloadAsync)
	})

	s.router.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.handleListTasks)
		r.Get("/stats", s.handleTaskStats)
		r.Get("/status/{status}", s.handleTasksByStatus)
		r.Get("/{id}", s.handleGetTask)
		r.Post("/{id}/cancel", s.handleCancelTask)
		r.Get("/{id}/result", s.handleTaskResult)
	})

	s.router.Route("/api/run", func(r chi.Router) {
		r.Post("/noos/async", s.handleRunNoosAsync)
	})

	s.router.Route("/api/results", func(r chi.Router) {
		r.Get("/noos", s.handleNoosResults)
		r.Get("/noos/summary", s.handleNoosSummary)
		r.Get("/noos/{type}", s.handleNoosResultsByType)
	})

	s.router.Route("/api/algo", func(r chi.Router) {
		r.Get("/", s.handleListParameterSets)
		r.Post("/", s.handleCreateParameterSet)
		r.Post("/{name}/activate", s.handleActivateParameterSet)
	})

	s.router.Delete("/api/data/clear-all", s.handleClearAll)
	s.router.Get("/api/audit", s.handleAuditLog)
}

// Start launches the HTTP server in the background.
func (s *Server) Start(port int) {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{Addr: addr, Handler: s.router}
	go func() {
		s.logger.Info("http server starting", "addr", addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "error", err)
		}
	}()
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
