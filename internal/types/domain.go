package types

import "time"

// AlertJob is one unit of work: evaluate a property against all eligible buyers.
type AlertJob struct {
	ID           string     `json:"id" db:"id"`
	PropertyID   string     `json:"property_id" db:"property_id"`
	AlertType    AlertType  `json:"alert_type" db:"alert_type"`
	State        JobState   `json:"state" db:"state"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// PropertyListing is the read-only snapshot of a listing used for matching.
type PropertyListing struct {
	ID    string   `json:"id" db:"id"`
	Title string   `json:"title" db:"title"`
	Price *float64 `json:"price,omitempty" db:"price"`
	// PriceDisplay is the agent-entered price text, e.g. "$500k-$650k".
	PriceDisplay  string `json:"price_display,omitempty" db:"price_display"`
	City          string `json:"city" db:"city"`
	State         string `json:"state" db:"state"`
	PropertyType  string `json:"property_type" db:"property_type"`
	Bedrooms      int    `json:"bedrooms" db:"bedrooms"`
	Bathrooms     int    `json:"bathrooms" db:"bathrooms"`
	SquareFeet    int    `json:"square_feet" db:"square_feet"`
	Status        string `json:"status" db:"status"`
	ListingSource string `json:"listing_source" db:"listing_source"`
}

// Approved reports whether the listing is eligible for alerts.
func (l *PropertyListing) Approved() bool {
	return l != nil && l.Status == ListingStatusApproved
}

// ListingEnrichment is optional display data attached to an alert email.
type ListingEnrichment struct {
	ImageURL string   `json:"image_url,omitempty"`
	Features []string `json:"features,omitempty"`
}

// BuyerPreferences holds a buyer's alert settings. Bedroom and bathroom
// minimums are decoded from legacy "bedrooms:N" tokens at the repository
// boundary; PreferredAreas contains only real area strings.
type BuyerPreferences struct {
	UserID                  string   `json:"user_id" validate:"required"`
	PropertyAlerts          bool     `json:"property_alerts"`
	EmailNotifications      bool     `json:"email_notifications"`
	BudgetRange             string   `json:"budget_range,omitempty"`
	PreferredAreas          []string `json:"preferred_areas,omitempty"`
	PreferredBedrooms       *int     `json:"preferred_bedrooms,omitempty" validate:"omitempty,gte=0"`
	PreferredBathrooms      *int     `json:"preferred_bathrooms,omitempty" validate:"omitempty,gte=0"`
	PropertyTypePreferences []string `json:"property_type_preferences,omitempty"`
}

// BuyerProfile is the profile half of the candidate join.
type BuyerProfile struct {
	ID               string           `json:"id" validate:"required"`
	Email            string           `json:"email" validate:"required,email"`
	FullName         string           `json:"full_name"`
	Role             ProfileRole      `json:"role" validate:"required,eq=buyer"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier"`
}

// BuyerCandidate is a buyer eligible for evaluation against a job.
type BuyerCandidate struct {
	Preferences BuyerPreferences `json:"preferences"`
	Profile     BuyerProfile     `json:"profile"`
}

// MatchResult is the verdict of scoring one listing against one buyer.
type MatchResult struct {
	IsMatch         bool     `json:"isMatch"`
	Score           float64  `json:"score"`
	MatchedCriteria []string `json:"matchedCriteria"`
}

// Match pairs a candidate with the listing it matched and the verdict.
type Match struct {
	Candidate BuyerCandidate
	Listing   PropertyListing
	Result    MatchResult
}

// AlertRecord is the persisted outcome of one dispatch attempt.
type AlertRecord struct {
	ID                string      `json:"id" db:"id"`
	BuyerID           string      `json:"buyer_id" db:"buyer_id"`
	PropertyID        string      `json:"property_id" db:"property_id"`
	AlertType         AlertType   `json:"alert_type" db:"alert_type"`
	Status            AlertStatus `json:"status" db:"status"`
	EmailTemplate     string      `json:"email_template" db:"email_template"`
	ProviderMessageID string      `json:"provider_message_id,omitempty" db:"provider_message_id"`
	SentAt            time.Time   `json:"sent_at" db:"sent_at"`
}

// AlertRecordFilter narrows a delivery history query. Empty fields are ignored.
type AlertRecordFilter struct {
	BuyerID    string
	PropertyID string
	AlertType  AlertType
	Limit      int
}

// AuditEntry is one row of the append-only audit sink.
type AuditEntry struct {
	ID        string    `json:"id" db:"id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"`
	TableName string    `json:"table_name" db:"table_name"`
	Action    string    `json:"action" db:"action"`
	NewValues JSONMap   `json:"new_values" db:"new_values"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BatchResult aggregates counts for one pipeline invocation.
type BatchResult struct {
	Processed    int `json:"processed"`
	Matches      int `json:"matches"`
	AlertsSent   int `json:"alertsSent"`
	AccessDenied int `json:"accessDenied"`
}

// Add folds another result into r.
func (r *BatchResult) Add(o BatchResult) {
	r.Processed += o.Processed
	r.Matches += o.Matches
	r.AlertsSent += o.AlertsSent
	r.AccessDenied += o.AccessDenied
}
