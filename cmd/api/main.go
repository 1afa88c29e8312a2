// Package main is the entry point for the property alerts API.
//
// Locally (APP_ENV=local) it serves HTTP on the configured port. Inside AWS
// Lambda it serves Function URL events through the same chi router.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"

	"propertyalerts/internal/api/handlers"
	"propertyalerts/internal/app"
	"propertyalerts/internal/config"
	"propertyalerts/internal/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// serverDeps are the collaborators mounted onto the HTTP chassis.
type serverDeps struct {
	processor handlers.BatchProcessor
	requeuer  handlers.JobRequeuer
	records   handlers.AlertRecordLister
	rateLimit core.RateLimitStore
	metrics   core.LatencyRecorder
	probes    []core.HealthProbe
	closers   []func() error
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := app.NewLogger(cfg.LogLevel)
	logger.Info("property alerts API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	deps := serverDeps{
		processor: a.Orchestrator,
		requeuer:  a.Requeuer,
		records:   a.Records,
		metrics:   a.Metrics,
		probes:    a.Probes,
		closers:   []func() error{a.Close},
	}
	if a.RateLimiter != nil {
		deps.rateLimit = a.RateLimiter
	}

	srv, err := buildServer(cfg, logger, deps)
	if err != nil {
		_ = a.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	if isLambdaEnvironment() {
		logger.Info("running as Lambda Function URL handler")
		lambda.Start(core.NewFunctionURLHandler(srv.Handler()))
		return nil
	}
	return runHTTPServer(srv, cfg, logger)
}

// buildServer constructs the chassis and mounts the alert routes.
func buildServer(cfg *config.Config, logger *slog.Logger, d serverDeps) (*core.Server, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, err
	}
	srv.RateLimitStore = d.rateLimit
	srv.Metrics = d.metrics
	srv.HealthProbes = d.probes
	srv.Closers = d.closers

	alerts := handlers.NewAlertsHandler(d.processor, d.requeuer, d.records, srv.Validator, logger, cfg.Pipeline.BatchSize)
	srv.RootRouteRegistrars = append(srv.RootRouteRegistrars, func(r chi.Router) {
		alerts.RegisterRootRoutes(r, srv.ProcessRateLimit)
	})
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, alerts.RegisterRoutes)

	srv.MountRoutes()
	return srv, nil
}

// isLambdaEnvironment reports whether the process runs inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer serves until SIGINT/SIGTERM, then drains for up to 10s.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Batch runs may take most of the request timeout.
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}
