// Package main provides the cropper HTTP API server entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/spherical/pdf-cropper/cmd/pdf-cropper-api/handlers"
	"github.com/spherical/pdf-cropper/cmd/pdf-cropper-api/middleware"
	"github.com/spherical/pdf-cropper/internal/config"
	"github.com/spherical/pdf-cropper/internal/crop"
	"github.com/spherical/pdf-cropper/internal/jobs"
	"github.com/spherical/pdf-cropper/internal/observability"
	"github.com/spherical/pdf-cropper/internal/pdf"
)

func main() {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if cfg.Server.APIKey == "" {
		logger.Error().Msg("server.api_key (or PDFCROP_API_KEY) is required to start the API")
		os.Exit(1)
	}

	rootDir := cfg.Server.RootDir
	if rootDir == "" {
		if rootDir, err = os.Getwd(); err != nil {
			logger.Error().Err(err).Msg("Cannot determine root directory")
			os.Exit(1)
		}
	}

	logger.Info().
		Str("host", cfg.Server.Host).
		Str("root_dir", rootDir).
		Int("port", cfg.Server.Port).
		Int("max_jobs", cfg.Jobs.MaxJobs).
		Msg("Starting pdf-cropper API")

	service := crop.NewService(
		pdf.NewBackend(cfg.Content.MaxFormDepth, logger),
		logger,
		crop.WithEventBuffer(cfg.Jobs.EventQueue),
	)
	manager := jobs.NewManager(service, cfg.Jobs.MaxJobs, logger)

	router := NewRouter(logger, manager, &AppConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: []string{"*"},
		Defaults: handlers.Defaults{
			Suffix:    cfg.Crop.Suffix,
			Margin:    cfg.Crop.Margin,
			PerPage:   cfg.Crop.PerPage,
			OutputDir: cfg.Crop.OutputDir,
			RootDir:   rootDir,
		},
		AuthConfig: middleware.AuthConfig{
			Enabled: true,
			APIKey:  cfg.Server.APIKey,
		},
	})

	addr := cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	// running batches stop after their current file
	if err := manager.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("Jobs still running at exit")
	}

	logger.Info().Msg("Server stopped")
}
