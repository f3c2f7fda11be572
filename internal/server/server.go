// Package server exposes the optimization service over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxlab/promptforge/internal/config"
	"github.com/voxlab/promptforge/internal/domain"
)

const ReadTimeout = 30 * time.Second

// OptimizeService runs one optimization cycle.
type OptimizeService interface {
	Optimize(ctx context.Context, payload *domain.OptimizationPayload) (*domain.OptimizationResult, error)
}

// ReadStore is the query surface the read endpoints need.
type ReadStore interface {
	Metrics(ctx context.Context) (*domain.AggregateMetrics, error)
	GetActivePrompt(ctx context.Context) (*domain.PromptVersion, error)
	ListPrompts(ctx context.Context, limit int) ([]*domain.PromptVersion, error)
	RecentRuns(ctx context.Context, limit int) ([]*domain.OptimizationRun, error)
}

type Server struct {
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
}

func NewServer(cfg *config.Config, store ReadStore, optimizer OptimizeService, model string) *Server {
	router := chi.NewRouter()

	router.Use(Recovery)
	router.Use(RequestID)
	router.Use(Logger)
	router.Use(CORS(cfg.Server.AllowedOrigins))

	h := &handler{store: store, optimizer: optimizer, model: model}
	router.Get("/health", h.Health)
	router.Get("/metrics", h.Metrics)
	router.Get("/prompts", h.Prompts)
	router.Post("/optimize", h.Optimize)

	router.Get("/internal/metrics", promhttp.Handler().ServeHTTP)

	return &Server{
		cfg:    cfg,
		router: router,
	}
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: ReadTimeout,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
