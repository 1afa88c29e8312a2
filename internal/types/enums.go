package types

// AlertType identifies the visibility tier of a listing that triggered a job.
type AlertType string

const (
	AlertOnMarket  AlertType = "on_market"
	AlertOffMarket AlertType = "off_market"
)

// Valid reports whether the alert type is one the pipeline knows how to handle.
func (a AlertType) Valid() bool {
	return a == AlertOnMarket || a == AlertOffMarket
}

// JobState is the lifecycle state of an AlertJob.
type JobState string

const (
	JobPending    JobState = "pending"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
)

// validJobTransitions lists the allowed next states for each state.
// processing -> pending is stale-lock recovery; completed -> pending is a
// manual requeue.
var validJobTransitions = map[JobState][]JobState{
	JobPending:    {JobProcessing},
	JobProcessing: {JobCompleted, JobPending},
	JobCompleted:  {JobPending},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s JobState) CanTransitionTo(next JobState) bool {
	for _, allowed := range validJobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SubscriptionTier is the buyer's plan as stored on the profile.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// Known reports whether the tier is one of the published plans.
func (t SubscriptionTier) Known() bool {
	return t == TierFree || t == TierPremium
}

// ProfileRole is the marketplace role of a profile. Only buyers receive alerts.
type ProfileRole string

const (
	RoleBuyer ProfileRole = "buyer"
)

// AlertStatus is the outcome of one dispatch attempt.
type AlertStatus string

const (
	AlertStatusSent      AlertStatus = "sent"
	AlertStatusDelivered AlertStatus = "delivered"
	AlertStatusFailed    AlertStatus = "failed"
)

// ListingStatusApproved is the only listing status eligible for alerts.
const ListingStatusApproved = "approved"
