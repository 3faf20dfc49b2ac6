// Package server exposes the knowledge-graph memory over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/memograph"
	"github.com/soundprediction/memograph/pkg/config"
)

// Server is the HTTP front end over a Memograph client.
type Server struct {
	config *config.Config
	engine memograph.Memograph
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// New creates a new server instance.
func New(cfg *config.Config, engine memograph.Memograph, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		engine: engine,
		logger: logger,
	}
}

// Setup builds the router and the underlying HTTP server.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/ready", s.readinessCheck)
	s.router.GET("/live", s.livenessCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/learn", s.learn)
		v1.POST("/learn/batch", s.learnBatch)
		v1.POST("/ask", s.ask)
		v1.GET("/documents/:id", s.getDocument)
		v1.DELETE("/documents/:id", s.deleteDocument)
		v1.GET("/stats", s.stats)
	}
}

// Router returns the configured gin engine, primarily for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}
