package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"propertyalerts/internal/types"
)

const alertJobColumns = `id, property_id, alert_type, state, error_message, created_at, started_at, completed_at`

// AlertJobRepository is the Job Store: it owns the alert_jobs state machine.
// Claims are conditional updates, so two overlapping runs can never both
// move the same job to processing.
type AlertJobRepository struct {
	db  DBTX
	now func() time.Time
}

func NewAlertJobRepository(db DBTX) *AlertJobRepository {
	return &AlertJobRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// GetPending returns up to limit pending jobs, oldest first.
func (r *AlertJobRepository) GetPending(ctx context.Context, limit int) ([]types.AlertJob, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+alertJobColumns+`
		 FROM alert_jobs
		 WHERE state = 'pending'
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query pending alert jobs", err)
	}
	defer rows.Close()

	jobs := make([]types.AlertJob, 0, limit)
	for rows.Next() {
		job, err := scanAlertJob(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert job", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating alert jobs", err)
	}
	return jobs, nil
}

// MarkProcessing claims a pending job. It returns false when the job is no
// longer pending (another run holds it, or it was already completed).
func (r *AlertJobRepository) MarkProcessing(ctx context.Context, jobID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_jobs
		 SET state = 'processing', started_at = $2, error_message = NULL
		 WHERE id = $1 AND state = 'pending'`,
		jobID,
		r.now(),
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to mark alert job processing", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompleted finalizes a job. errMsg is nil when the job itself succeeded,
// independent of individual send failures.
func (r *AlertJobRepository) MarkCompleted(ctx context.Context, jobID string, errMsg *string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_jobs
		 SET state = 'completed', error_message = $2, completed_at = $3
		 WHERE id = $1`,
		jobID,
		errMsg,
		r.now(),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to mark alert job completed", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundAlertJob, "alert job not found", nil)
	}
	return nil
}

// Get returns one job by ID.
func (r *AlertJobRepository) Get(ctx context.Context, jobID string) (*types.AlertJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+alertJobColumns+` FROM alert_jobs WHERE id = $1`,
		jobID,
	)
	job, err := scanAlertJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAlertJob, "alert job not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get alert job", err)
	}
	return &job, nil
}

// Requeue moves a job back to pending only if it is still in state from.
// False means the job changed state concurrently.
func (r *AlertJobRepository) Requeue(ctx context.Context, jobID string, from types.JobState) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_jobs
		 SET state = 'pending', error_message = NULL, started_at = NULL, completed_at = NULL
		 WHERE id = $1 AND state = $2`,
		jobID,
		string(from),
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to requeue alert job", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RequeueStale returns jobs stuck in processing since before cutoff to
// pending, recovering claims left by crashed invocations.
func (r *AlertJobRepository) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_jobs
		 SET state = 'pending', started_at = NULL
		 WHERE state = 'processing' AND started_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to requeue stale alert jobs", err)
	}
	return tag.RowsAffected(), nil
}

func scanAlertJob(row pgx.Row) (types.AlertJob, error) {
	var (
		job       types.AlertJob
		alertType string
		state     string
	)
	err := row.Scan(
		&job.ID,
		&job.PropertyID,
		&alertType,
		&state,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	)
	job.AlertType = types.AlertType(alertType)
	job.State = types.JobState(state)
	return job, err
}
