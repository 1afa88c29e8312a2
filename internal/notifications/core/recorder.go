package core

import (
	"context"

	"propertyalerts/internal/types"
)

// Recorder is the Outcome Recorder. Every method is best-effort: write
// failures are logged and swallowed so the pipeline never fails on audit I/O.
type Recorder struct {
	alerts AlertRecordStore
	audit  AuditStore
	logger types.Logger
}

func NewRecorder(alerts AlertRecordStore, audit AuditStore, logger types.Logger) *Recorder {
	return &Recorder{alerts: alerts, audit: audit, logger: logger}
}

// RecordAlert appends one AlertRecord.
func (r *Recorder) RecordAlert(ctx context.Context, rec types.AlertRecord) {
	if err := r.alerts.Insert(ctx, rec); err != nil {
		r.logger.Error("failed to record alert",
			"buyer_id", rec.BuyerID,
			"property_id", rec.PropertyID,
			"alert_type", string(rec.AlertType),
			"status", string(rec.Status),
			"error", err,
		)
	}
}

// LogProcessing writes the per-job summary entry.
func (r *Recorder) LogProcessing(ctx context.Context, propertyID string, matchesFound, alertsSent, accessDenied int) {
	entry := types.AuditEntry{
		TableName: AuditTableAlerts,
		Action:    AuditActionProcess,
		NewValues: types.JSONMap{
			"property_id":         propertyID,
			"matches_found":       matchesFound,
			"alerts_sent":         alertsSent,
			"access_denied_count": accessDenied,
		},
	}
	if err := r.audit.Insert(ctx, entry); err != nil {
		r.logger.Error("failed to write processing audit entry",
			"property_id", propertyID,
			"error", err,
		)
	}
}

// LogFeatureAccess writes one entitlement decision. details are merged into
// new_values alongside the allowed flag.
func (r *Recorder) LogFeatureAccess(ctx context.Context, buyerID, action string, allowed bool, details map[string]any) {
	values := make(types.JSONMap, len(details)+1)
	for k, v := range details {
		values[k] = v
	}
	values["allowed"] = allowed

	uid := buyerID
	entry := types.AuditEntry{
		UserID:    &uid,
		TableName: AuditTableFeatureAccess,
		Action:    action,
		NewValues: values,
	}
	if err := r.audit.Insert(ctx, entry); err != nil {
		r.logger.Error("failed to write feature access audit entry",
			"buyer_id", buyerID,
			"action", action,
			"error", err,
		)
	}
}
