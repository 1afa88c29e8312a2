// Package main implements the job-runner CLI for invoking alert tasks
// directly, outside Lambda and the cron scheduler.
//
// Usage:
//
//	go run ./cmd/tools/job-runner --list
//	go run ./cmd/tools/job-runner --task=process_alert_jobs --batch-size=25
//	go run ./cmd/tools/job-runner --dry-run --task=requeue_stale_alert_jobs
//	go run ./cmd/tools/job-runner --requeue-job=6f1c0c8e-2a53-4cf1-9b7e-1d2f0a6b9e10
//	go run ./cmd/tools/job-runner --migrate
//
// Configuration is read the same way as the API (environment or .env). In
// --dry-run mode the JSON payload is printed without connecting anywhere.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propertyalerts/internal/app"
	"propertyalerts/internal/db"
	"propertyalerts/internal/scheduler"
)

type options struct {
	task       scheduler.TaskType
	list       bool
	dryRun     bool
	migrate    bool
	requeueJob string
	batchSize  int
	refTime    *time.Time
}

var errUsage = errors.New("usage")

func parseOptions(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("job-runner", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts    options
		task    string
		refTime string
	)
	fs.StringVar(&task, "task", "", "Task type to execute (e.g., process_alert_jobs)")
	fs.StringVar(&refTime, "reference-time", "", "Override reference time (RFC3339)")
	fs.BoolVar(&opts.list, "list", false, "List all available task types and exit")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Print the JSON payload without executing")
	fs.BoolVar(&opts.migrate, "migrate", false, "Apply database migrations and exit")
	fs.StringVar(&opts.requeueJob, "requeue-job", "", "Move one alert job back to pending and exit")
	fs.IntVar(&opts.batchSize, "batch-size", 0, "Batch size for process_alert_jobs (1-50, default from config)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: job-runner [flags]\n\n")
		fmt.Fprintf(stderr, "Invoke property alert tasks directly.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.list || opts.migrate || opts.requeueJob != "" {
		return opts, nil
	}
	if task == "" {
		fmt.Fprintf(stderr, "error: --task is required\n\n")
		fs.Usage()
		return opts, errUsage
	}
	opts.task = scheduler.TaskType(task)
	if _, ok := scheduler.Describe(opts.task); !ok {
		return opts, fmt.Errorf("unknown task type %q", task)
	}
	if opts.batchSize < 0 || opts.batchSize > 50 {
		return opts, fmt.Errorf("--batch-size must be between 1 and 50, got %d", opts.batchSize)
	}
	if refTime != "" {
		t, err := time.Parse(time.RFC3339, refTime)
		if err != nil {
			return opts, fmt.Errorf("invalid --reference-time %q (expected RFC3339): %w", refTime, err)
		}
		opts.refTime = &t
	}
	return opts, nil
}

func (o options) payload() scheduler.TaskPayload {
	return scheduler.TaskPayload{Task: o.task, BatchSize: o.batchSize, ReferenceTime: o.refTime}
}

func printAvailableTasks(w io.Writer) {
	fmt.Fprintf(w, "Available tasks:\n\n")
	for _, t := range scheduler.Tasks() {
		desc, _ := scheduler.Describe(t)
		fmt.Fprintf(w, "  %-28s %s\n", t, desc)
	}
}

func printPayload(w io.Writer, p scheduler.TaskPayload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) && !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(2)
	}

	switch {
	case opts.list:
		printAvailableTasks(os.Stdout)
		return
	case opts.dryRun && opts.task != "":
		if err := printPayload(os.Stdout, opts.payload()); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := execute(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func execute(opts options) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := app.NewLogger(cfg.LogLevel)

	if opts.migrate {
		if err := db.RunMigrations(cfg.Database.URL.Unmask()); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.requeueJob != "" {
		job, err := a.Requeuer.Requeue(ctx, opts.requeueJob)
		if err != nil {
			return fmt.Errorf("requeue %s: %w", opts.requeueJob, err)
		}
		logger.Info("job requeued", "job_id", job.ID, "property_id", job.PropertyID, "state", string(job.State))
		return nil
	}

	result, err := a.Runner.Run(ctx, opts.payload())
	if err != nil {
		return err
	}
	logger.Info("task execution finished",
		"task", string(result.Task),
		"status", string(result.Status),
		"items", result.Items,
	)
	return nil
}
