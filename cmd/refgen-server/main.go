// Package main provides the Refgen HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avoigt/refgen/internal/config"
	"github.com/avoigt/refgen/internal/jobs"
	"github.com/avoigt/refgen/internal/llm"
	"github.com/avoigt/refgen/internal/metrics"
	"github.com/avoigt/refgen/internal/pdf"
	"github.com/avoigt/refgen/internal/pipeline"
	"github.com/avoigt/refgen/internal/server"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", os.Getenv("REFGEN_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("refgen-server starting",
		"version", version,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
	)

	// Root context for in-flight jobs; cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model, err := llm.NewModel(cfg)
	if err != nil {
		logger.Error("failed to create LLM model", "error", err)
		os.Exit(1)
	}

	renderer, err := pdf.NewRenderer(pdf.Options{
		BrowserBin: cfg.BrowserBin,
		Timeout:    cfg.RenderTimeout,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to start renderer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("failed to close renderer", "error", err)
		}
	}()

	registry := jobs.NewRegistry(logger)
	defer registry.Close()

	collector := metrics.NewCollector()

	pipe := pipeline.New(pipeline.Options{
		Registry:        registry,
		Generator:       model,
		Renderer:        renderer,
		Metrics:         collector,
		Logger:          logger,
		BaseCtx:         ctx,
		GenerateTimeout: cfg.GenerateTimeout,
	})

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Options{
		Registry:  registry,
		Pipeline:  pipe,
		Metrics:   collector,
		Logger:    logger,
		Retention: cfg.RetentionDelay,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("listening", "url", fmt.Sprintf("http://localhost:%s/api", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
