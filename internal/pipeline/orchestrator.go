package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"propertyalerts/internal/matching"
	"propertyalerts/internal/notifications/core"
	"propertyalerts/internal/types"
)

// ErrListingUnavailable is the job error for a missing or unapproved listing.
var ErrListingUnavailable = errors.New("property not found or not approved")

// DefaultBatchSize applies when the caller passes a non-positive size.
const DefaultBatchSize = 10

type Config struct {
	// MatchConcurrency bounds parallel scoring within a job. 1 scores
	// sequentially.
	MatchConcurrency int
	// SkipDuplicates enables the duplicate guard.
	SkipDuplicates bool
}

type Deps struct {
	Jobs       JobStore
	Listings   ListingReader
	Candidates CandidateReader
	Gate       AccessGate
	Dispatcher Dispatcher
	Recorder   OutcomeRecorder
	// Duplicates is required only when Config.SkipDuplicates is set.
	Duplicates DuplicateChecker
	Metrics    core.PipelineMetrics
	Logger     types.Logger
}

// Orchestrator processes one bounded batch per call. Jobs run sequentially;
// every job ends completed, with an error message if the job itself failed.
type Orchestrator struct {
	deps     Deps
	cfg      Config
	evaluate func(types.PropertyListing, types.BuyerPreferences) types.MatchResult
}

func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	if cfg.MatchConcurrency < 1 {
		cfg.MatchConcurrency = 1
	}
	if deps.Metrics == nil {
		deps.Metrics = core.NoopMetrics{}
	}
	return &Orchestrator{deps: deps, cfg: cfg, evaluate: matching.Evaluate}
}

// ProcessPendingJobs runs up to batchSize pending jobs. Only a failure to
// list pending jobs is returned; everything after that is recovered per job
// or per buyer. Once fetched, the batch runs to completion even if ctx is
// cancelled, so no claimed job is left in processing.
func (o *Orchestrator) ProcessPendingJobs(ctx context.Context, batchSize int) (types.BatchResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	logger := o.deps.Logger.With("trace_id", types.GetTraceID(ctx))

	jobs, err := o.deps.Jobs.GetPending(ctx, batchSize)
	if err != nil {
		return types.BatchResult{}, fmt.Errorf("ProcessPendingJobs: %w", err)
	}
	if len(jobs) == 0 {
		logger.Info("no pending alert jobs")
		return types.BatchResult{}, nil
	}
	ctx = context.WithoutCancel(ctx)

	var total types.BatchResult
	for _, job := range jobs {
		jobLogger := logger.With("job_id", job.ID, "property_id", job.PropertyID, "alert_type", string(job.AlertType))

		claimed, err := o.deps.Jobs.MarkProcessing(ctx, job.ID)
		if err != nil {
			jobLogger.Warn("failed to claim alert job", "error", err)
			o.deps.Metrics.RecordJob(ctx, job.AlertType, core.MetricSkipped)
			continue
		}
		if !claimed {
			jobLogger.Info("alert job already claimed, skipping")
			o.deps.Metrics.RecordJob(ctx, job.AlertType, core.MetricSkipped)
			continue
		}

		tally, jobErr := o.runJob(ctx, job, jobLogger)
		total.Add(tally)

		var errMsg *string
		if jobErr != nil {
			msg := jobErr.Error()
			errMsg = &msg
			jobLogger.Error("alert job failed", "error", msg)
		}
		if err := o.deps.Jobs.MarkCompleted(ctx, job.ID, errMsg); err != nil {
			jobLogger.Error("failed to mark alert job completed", "error", err)
			o.deps.Metrics.RecordJob(ctx, job.AlertType, core.MetricFailed)
			continue
		}

		if jobErr != nil {
			o.deps.Metrics.RecordJob(ctx, job.AlertType, core.MetricFailed)
			continue
		}
		total.Processed++
		o.deps.Metrics.RecordJob(ctx, job.AlertType, core.MetricSuccess)
		jobLogger.Info("alert job completed",
			"matches", tally.Matches,
			"alerts_sent", tally.AlertsSent,
			"access_denied", tally.AccessDenied,
		)
	}

	o.deps.Metrics.RecordBatch(ctx, total)
	logger.Info("alert batch finished",
		"jobs", len(jobs),
		"processed", total.Processed,
		"matches", total.Matches,
		"alerts_sent", total.AlertsSent,
		"access_denied", total.AccessDenied,
	)
	return total, nil
}

// runJob evaluates one claimed job. The returned tally holds whatever was
// counted before a failure, including a recovered panic.
func (o *Orchestrator) runJob(ctx context.Context, job types.AlertJob, logger types.Logger) (tally types.BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing alert job",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	listing, err := o.deps.Listings.GetApprovedListing(ctx, job.PropertyID)
	if err != nil {
		return tally, fmt.Errorf("failed to load property: %w", err)
	}
	if listing == nil {
		return tally, ErrListingUnavailable
	}

	candidates, err := o.deps.Candidates.ListCandidates(ctx)
	if err != nil {
		return tally, fmt.Errorf("failed to load buyer preferences: %w", err)
	}

	allowed := make([]types.BuyerCandidate, 0, len(candidates))
	for _, c := range candidates {
		if !o.deps.Gate.HasAccess(ctx, c.Profile.ID, job.AlertType) {
			tally.AccessDenied++
			continue
		}
		allowed = append(allowed, c)
	}

	matches, err := o.score(*listing, allowed)
	if err != nil {
		return tally, err
	}
	tally.Matches = len(matches)

	for _, m := range matches {
		if o.sendOne(ctx, job, m, logger) {
			tally.AlertsSent++
		}
	}

	o.deps.Recorder.LogProcessing(ctx, job.PropertyID, tally.Matches, tally.AlertsSent, tally.AccessDenied)
	return tally, nil
}

// score runs the match engine over candidates, keeping candidate order.
func (o *Orchestrator) score(listing types.PropertyListing, candidates []types.BuyerCandidate) ([]types.Match, error) {
	results := make([]types.MatchResult, len(candidates))

	var g errgroup.Group
	g.SetLimit(o.cfg.MatchConcurrency)
	for i, c := range candidates {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("unexpected error scoring buyer %s: %v", c.Profile.ID, r)
				}
			}()
			results[i] = o.evaluate(listing, c.Preferences)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matches []types.Match
	for i, r := range results {
		if r.IsMatch {
			matches = append(matches, types.Match{Candidate: candidates[i], Listing: listing, Result: r})
		}
	}
	return matches, nil
}

// sendOne dispatches and records a single match. It reports whether the
// alert was sent. Failures are recorded and never abort the job.
func (o *Orchestrator) sendOne(ctx context.Context, job types.AlertJob, m types.Match, logger types.Logger) bool {
	buyerID := m.Candidate.Profile.ID

	if o.cfg.SkipDuplicates && o.deps.Duplicates != nil {
		dup, err := o.deps.Duplicates.HasDelivered(ctx, buyerID, job.PropertyID, job.AlertType)
		switch {
		case err != nil:
			logger.Warn("duplicate check failed, sending anyway", "buyer_id", buyerID, "error", err)
		case dup:
			logger.Info("alert already delivered, skipping", "buyer_id", buyerID)
			o.deps.Metrics.RecordDelivery(ctx, job.AlertType, core.MetricSkipped)
			return false
		}
	}

	rec := types.AlertRecord{
		BuyerID:       buyerID,
		PropertyID:    job.PropertyID,
		AlertType:     job.AlertType,
		EmailTemplate: o.deps.Dispatcher.TemplateName(job.AlertType),
	}

	msgID, err := o.deps.Dispatcher.Send(ctx, m, job.AlertType)
	if err != nil {
		logger.Error("failed to send alert",
			"buyer_id", buyerID,
			"score", m.Result.Score,
			"error", err,
		)
		rec.Status = types.AlertStatusFailed
		o.deps.Recorder.RecordAlert(ctx, rec)
		o.deps.Metrics.RecordDelivery(ctx, job.AlertType, core.MetricFailed)
		return false
	}

	rec.Status = types.AlertStatusSent
	rec.ProviderMessageID = msgID
	o.deps.Recorder.RecordAlert(ctx, rec)
	o.deps.Metrics.RecordDelivery(ctx, job.AlertType, core.MetricSuccess)
	return true
}
