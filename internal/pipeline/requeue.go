package pipeline

import (
	"context"
	"fmt"
	"time"

	"propertyalerts/internal/types"
)

// RequeueStore is the part of the job store used for recovery.
type RequeueStore interface {
	Get(ctx context.Context, jobID string) (*types.AlertJob, error)
	Requeue(ctx context.Context, jobID string, from types.JobState) (bool, error)
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// TriggerPublisher asks a worker to run a batch.
type TriggerPublisher interface {
	Publish(ctx context.Context, t types.ProcessTrigger) error
}

// Requeuer moves jobs back to pending: on demand for completed jobs or
// abandoned claims, and in bulk for stale claims. A trigger is published
// after every successful requeue when a publisher is configured.
type Requeuer struct {
	jobs       RequeueStore
	publisher  TriggerPublisher
	clock      types.Clock
	staleAfter time.Duration
	logger     types.Logger
}

func NewRequeuer(jobs RequeueStore, publisher TriggerPublisher, clock types.Clock, staleAfter time.Duration, logger types.Logger) *Requeuer {
	return &Requeuer{
		jobs:       jobs,
		publisher:  publisher,
		clock:      clock,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Requeue resets one job. A processing job is only eligible once its claim
// is older than the stale threshold.
func (r *Requeuer) Requeue(ctx context.Context, jobID string) (*types.AlertJob, error) {
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.State.CanTransitionTo(types.JobPending) {
		return nil, types.NewAppError(types.ErrCodeConflictJobState,
			fmt.Sprintf("alert job is %s and cannot be requeued", job.State), nil)
	}
	if job.State == types.JobProcessing && !r.isStale(job) {
		return nil, types.NewAppError(types.ErrCodeConflictJobLock,
			"alert job is currently being processed", nil).
			WithDetails(map[string]any{"started_at": job.StartedAt})
	}

	ok, err := r.jobs.Requeue(ctx, jobID, job.State)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.NewAppError(types.ErrCodeConflictJobState,
			"alert job changed state concurrently", nil)
	}

	r.logger.Info("alert job requeued", "job_id", jobID, "from_state", string(job.State))
	r.publish(ctx, types.ProcessTrigger{Reason: types.TriggerReasonRequeue, JobID: jobID})

	job.State = types.JobPending
	job.ErrorMessage = nil
	job.StartedAt = nil
	job.CompletedAt = nil
	return job, nil
}

// RequeueStale resets every processing job claimed before the stale
// threshold and returns how many were reset.
func (r *Requeuer) RequeueStale(ctx context.Context) (int64, error) {
	cutoff := r.clock.Now().Add(-r.staleAfter)
	n, err := r.jobs.RequeueStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("RequeueStale: %w", err)
	}
	if n > 0 {
		r.logger.Warn("requeued stale alert jobs", "count", n, "cutoff", cutoff)
		r.publish(ctx, types.ProcessTrigger{Reason: types.TriggerReasonRequeue})
	}
	return n, nil
}

func (r *Requeuer) isStale(job *types.AlertJob) bool {
	if job.StartedAt == nil {
		return true
	}
	return job.StartedAt.Before(r.clock.Now().Add(-r.staleAfter))
}

// publish is best-effort; requeued jobs are also picked up by the schedule.
func (r *Requeuer) publish(ctx context.Context, t types.ProcessTrigger) {
	if r.publisher == nil {
		return
	}
	t.TraceID = types.GetTraceID(ctx)
	if err := r.publisher.Publish(ctx, t); err != nil {
		r.logger.Warn("failed to publish process trigger", "reason", t.Reason, "error", err)
	}
}
