// Package server provides the HTTP API for submitting and tracking
// generation jobs.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avoigt/refgen/internal/jobs"
	"github.com/avoigt/refgen/internal/metrics"
	"github.com/avoigt/refgen/internal/pipeline"
)

// Server wires the job registry, the generation pipeline, and the HTTP
// routes together.
type Server struct {
	engine    *gin.Engine
	registry  *jobs.Registry
	pipeline  *pipeline.Pipeline
	metrics   *metrics.Collector
	logger    *slog.Logger
	retention time.Duration
}

// Options configures a Server.
type Options struct {
	Registry *jobs.Registry
	Pipeline *pipeline.Pipeline
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	// Retention is how long a job record survives after its artifact was
	// downloaded. Zero means 5m.
	Retention time.Duration
}

// New creates the server and registers all routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Retention <= 0 {
		opts.Retention = 5 * time.Minute
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggingMiddleware(opts.Logger))

	s := &Server{
		engine:    engine,
		registry:  opts.Registry,
		pipeline:  opts.Pipeline,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		retention: opts.Retention,
	}

	api := engine.Group("/api")
	api.POST("/generate", s.handleGenerate)
	api.GET("/status/:id", s.handleStatus)
	api.GET("/download/:id", s.handleDownload)
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)

	return s
}

// Handler returns the HTTP handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}
