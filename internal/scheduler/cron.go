package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// TaskRunner executes one task payload.
type TaskRunner interface {
	Run(ctx context.Context, p TaskPayload) (RunResult, error)
}

// cronTasks run on every tick, in order.
var cronTasks = []TaskType{TaskRequeueStaleJobs, TaskProcessAlertJobs}

// Cron fires the alert tasks on a robfig/cron schedule. Ticks that overlap a
// still-running tick are skipped.
type Cron struct {
	cron   *cron.Cron
	runner TaskRunner
	spec   string
	logger *slog.Logger
}

// NewCron validates spec (standard five-field or "@every 1m" form).
func NewCron(spec string, runner TaskRunner, logger *slog.Logger) (*Cron, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	cl := cronLogger{logger: logger}
	return &Cron{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		spec:   spec,
		logger: logger,
	}, nil
}

// Start registers the tick and starts the scheduler. One tick runs
// immediately so pending jobs do not wait for the first interval.
func (c *Cron) Start(ctx context.Context) error {
	if _, err := c.cron.AddFunc(c.spec, func() { c.Tick(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	c.cron.Start()
	c.logger.InfoContext(ctx, "scheduler started", "schedule", c.spec)

	go c.Tick(ctx)
	return nil
}

// Stop stops new ticks and returns a context done when running ticks finish.
func (c *Cron) Stop() context.Context {
	return c.cron.Stop()
}

// Tick runs every cron task once. Failures are logged; the next tick retries.
func (c *Cron) Tick(ctx context.Context) {
	for _, task := range cronTasks {
		if ctx.Err() != nil {
			return
		}
		result, err := c.runner.Run(ctx, TaskPayload{Task: task})
		if err != nil {
			c.logger.ErrorContext(ctx, "scheduled task failed", "task", string(task), "error", err)
			continue
		}
		c.logger.InfoContext(ctx, "scheduled task finished",
			"task", string(task),
			"status", string(result.Status),
			"items", result.Items,
		)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

var _ cron.Logger = cronLogger{}
var _ TaskRunner = (*Runner)(nil)
