// Package server provides the clausegate HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/clausegate/internal/config"
	"github.com/hyperjump/clausegate/internal/models"
)

// Pipeline is the decision service behind the API.
type Pipeline interface {
	Run(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
	Retrieve(ctx context.Context, question string) (*models.RetrievalDebug, error)
	Verify(ctx context.Context, question, answer string) (models.FaithfulnessVerdict, error)
	AuditLogs(ctx context.Context) ([]models.AuditRecord, error)
}

// StatusFunc reports corpus and index status for GET /api/v1/status.
type StatusFunc func(ctx context.Context) (*Status, error)

// Server is the HTTP server for the clausegate API.
type Server struct {
	pipeline Pipeline
	status   StatusFunc
	config   config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server. status may be nil, in which case the status endpoint
// answers 501.
func NewServer(p Pipeline, status StatusFunc, cfg config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipeline: p,
		status:   status,
		config:   cfg,
		logger:   logger,
	}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/debug/retrieval", s.handleDebugRetrieval)
		r.Post("/debug/faithfulness", s.handleDebugFaithfulness)
		r.Get("/audit/logs", s.handleAuditLogs)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops. A graceful Stop is not an error.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request through zap instead of chi's stdlib logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
