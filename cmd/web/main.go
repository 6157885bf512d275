// Command web serves the upload front-end: POST a holdings workbook to
// /api/reports/process and fetch the processed report from the returned
// download URL.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fundcli/internal/config"
	"fundcli/internal/dataprocessing"
	"fundcli/internal/exporter"
	"fundcli/internal/infrastructure"
	transport "fundcli/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	processor := dataprocessing.NewProcessor(logger, exporter.NewExcelWriter(logger))
	handler := transport.NewReportHandler(processor, paths, logger, cfg.Limits.MaxUploadBytes)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(transport.RequestLogger(logger))

	r.Route("/api/reports", func(r chi.Router) {
		r.Use(transport.RateLimit(cfg.Limits.UploadRPS, cfg.Limits.UploadBurst))
		r.Mount("/", handler.Routes())
	})
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Web server listening",
			slog.Int("port", cfg.Server.Port),
			slog.String("uploads_dir", paths.UploadsDir),
			slog.String("reports_dir", paths.ReportsDir))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down web server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
}
