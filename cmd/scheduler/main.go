// Package main runs the alert tasks on a cron schedule for deployments
// without EventBridge. PIPELINE_SCHEDULE sets the cadence ("@every 1m" by
// default).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propertyalerts/internal/app"
	"propertyalerts/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := app.NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer a.Close()

	c, err := scheduler.NewCron(cfg.Pipeline.Schedule, a.Runner, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, waiting for running tasks")

	select {
	case <-c.Stop().Done():
	case <-time.After(30 * time.Second):
		logger.Warn("timed out waiting for running tasks")
	}
	return nil
}
