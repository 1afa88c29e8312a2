// Package pipeline runs the alert batch: it claims pending alert jobs, gates
// and scores every candidate buyer, dispatches alert emails, records each
// outcome and finalizes the job.
package pipeline

import (
	"context"

	"propertyalerts/internal/types"
)

// JobStore owns the alert job state machine.
type JobStore interface {
	GetPending(ctx context.Context, limit int) ([]types.AlertJob, error)
	MarkProcessing(ctx context.Context, jobID string) (bool, error)
	MarkCompleted(ctx context.Context, jobID string, errMsg *string) error
}

// ListingReader returns nil, nil when the listing is absent or not approved.
type ListingReader interface {
	GetApprovedListing(ctx context.Context, propertyID string) (*types.PropertyListing, error)
}

// CandidateReader lists buyers with alerts and email notifications enabled.
type CandidateReader interface {
	ListCandidates(ctx context.Context) ([]types.BuyerCandidate, error)
}

// AccessGate is the entitlement check. It never fails.
type AccessGate interface {
	HasAccess(ctx context.Context, buyerID string, alertType types.AlertType) bool
}

// Dispatcher sends one alert email.
type Dispatcher interface {
	Send(ctx context.Context, m types.Match, alertType types.AlertType) (string, error)
	TemplateName(alertType types.AlertType) string
}

// OutcomeRecorder is best-effort and never fails the caller.
type OutcomeRecorder interface {
	RecordAlert(ctx context.Context, rec types.AlertRecord)
	LogProcessing(ctx context.Context, propertyID string, matchesFound, alertsSent, accessDenied int)
}

// DuplicateChecker backs the opt-in duplicate guard.
type DuplicateChecker interface {
	HasDelivered(ctx context.Context, buyerID, propertyID string, alertType types.AlertType) (bool, error)
}
