// Package core provides the shared outcome infrastructure used by the alert
// pipeline: the best-effort Outcome Recorder (alert history and audit trail)
// and delivery metrics.
package core

import (
	"context"
	"time"

	"propertyalerts/internal/types"
)

// Audit table names and actions written by the Recorder.
const (
	AuditTableAlerts        = "property_alerts"
	AuditTableFeatureAccess = "feature_access"
	AuditActionProcess      = "process_alerts"
)

// AlertRecordStore persists dispatch outcomes.
type AlertRecordStore interface {
	Insert(ctx context.Context, rec types.AlertRecord) error
}

// AuditStore is the append-only audit sink.
type AuditStore interface {
	Insert(ctx context.Context, e types.AuditEntry) error
}

// MetricResult categorizes an outcome for metrics reporting.
type MetricResult string

const (
	MetricSuccess MetricResult = "success"
	MetricFailed  MetricResult = "failed"
	MetricSkipped MetricResult = "skipped"
)

// PipelineMetrics abstracts CloudWatch emission for the alert pipeline.
// Implementations never return errors; failures are logged.
type PipelineMetrics interface {
	RecordJob(ctx context.Context, alertType types.AlertType, result MetricResult)
	RecordBatch(ctx context.Context, r types.BatchResult)
	RecordDelivery(ctx context.Context, alertType types.AlertType, result MetricResult)
	RecordLatency(ctx context.Context, endpoint string, status int, d time.Duration)
}
