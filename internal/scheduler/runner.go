package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"propertyalerts/internal/types"
)

const defaultLockTTL = 15 * time.Minute

// LockStore is a lease table keyed by task.
type LockStore interface {
	Acquire(ctx context.Context, lockID, workerID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, lockID, workerID string) error
}

// HistoryStore records each run.
type HistoryStore interface {
	Start(ctx context.Context, jobType string) (int64, error)
	Finish(ctx context.Context, id int64, status string, items int, jobErr error) error
}

type BatchProcessor interface {
	ProcessPendingJobs(ctx context.Context, batchSize int) (types.BatchResult, error)
}

type StaleRequeuer interface {
	RequeueStale(ctx context.Context) (int64, error)
}

// RunnerConfig wires a Runner. Locks and History may be nil for local runs
// without a lease or history table.
type RunnerConfig struct {
	Locks     LockStore
	History   HistoryStore
	Processor BatchProcessor
	Requeuer  StaleRequeuer
	Clock     types.Clock
	Logger    *slog.Logger
	WorkerID  string
	LockTTL   time.Duration
	BatchSize int
}

// Runner executes tasks under a per-task lease and records job history.
type Runner struct {
	cfg RunnerConfig
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = types.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = "runner-" + uuid.NewString()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &Runner{cfg: cfg}
}

// Run executes one task. A held lease yields RunSkipped with no error.
func (r *Runner) Run(ctx context.Context, p TaskPayload) (RunResult, error) {
	result := RunResult{Task: p.Task}
	if _, ok := Describe(p.Task); !ok {
		return result, fmt.Errorf("unknown task %q", p.Task)
	}

	now := r.cfg.Clock.Now()
	if p.ReferenceTime != nil {
		now = p.ReferenceTime.UTC()
	}
	logger := r.cfg.Logger.With("task", string(p.Task), "worker_id", r.cfg.WorkerID)

	lockID := string(p.Task)
	if r.cfg.Locks != nil {
		acquired, err := r.cfg.Locks.Acquire(ctx, lockID, r.cfg.WorkerID, r.cfg.LockTTL)
		if err != nil {
			return result, fmt.Errorf("acquire lock %s: %w", lockID, err)
		}
		if !acquired {
			logger.InfoContext(ctx, "task skipped, lock held by another worker")
			result.Status = RunSkipped
			return result, nil
		}
		defer func() {
			// The run context may already be cancelled; release regardless.
			if err := r.cfg.Locks.Release(context.WithoutCancel(ctx), lockID, r.cfg.WorkerID); err != nil {
				logger.ErrorContext(ctx, "failed to release job lock", "error", err)
			}
		}()
	}

	var historyID int64
	if r.cfg.History != nil {
		id, err := r.cfg.History.Start(ctx, string(p.Task))
		if err != nil {
			logger.WarnContext(ctx, "failed to record job start", "error", err)
		} else {
			historyID = id
		}
	}

	logger.InfoContext(ctx, "task started", "reference_time", now.Format(time.RFC3339))
	items, runErr := r.dispatch(ctx, p)

	result.Items = items
	result.Status = RunSuccess
	if runErr != nil {
		result.Status = RunFailed
	}

	if historyID != 0 {
		if err := r.cfg.History.Finish(context.WithoutCancel(ctx), historyID, string(result.Status), items, runErr); err != nil {
			logger.ErrorContext(ctx, "failed to record job completion", "history_id", historyID, "error", err)
		}
	}

	if runErr != nil {
		logger.ErrorContext(ctx, "task failed", "error", runErr)
		return result, fmt.Errorf("task %s: %w", p.Task, runErr)
	}
	logger.InfoContext(ctx, "task complete", "items", items)
	return result, nil
}

func (r *Runner) dispatch(ctx context.Context, p TaskPayload) (int, error) {
	switch p.Task {
	case TaskProcessAlertJobs:
		if r.cfg.Processor == nil {
			return 0, fmt.Errorf("no batch processor configured")
		}
		size := p.BatchSize
		if size <= 0 {
			size = r.cfg.BatchSize
		}
		res, err := r.cfg.Processor.ProcessPendingJobs(ctx, size)
		return res.Processed, err

	case TaskRequeueStaleJobs:
		if r.cfg.Requeuer == nil {
			return 0, fmt.Errorf("no requeuer configured")
		}
		n, err := r.cfg.Requeuer.RequeueStale(ctx)
		return int(n), err

	default:
		return 0, fmt.Errorf("task %q has no handler", p.Task)
	}
}
