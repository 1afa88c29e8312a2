package types

// CloudWatch metric names and dimensions. Components must use these constants.
const (
	MetricJobsProcessed   = "AlertJobsProcessed"
	MetricMatches         = "AlertMatches"
	MetricAlertsSent      = "AlertsSent"
	MetricAccessDenied    = "AlertAccessDenied"
	MetricDeliveryAttempt = "AlertDelivery"
	MetricAPILatency      = "APILatency"

	DimAlertType = "AlertType"
	DimResult    = "Result"
	DimEndpoint  = "Endpoint"
	DimStatus    = "Status"

	MetricNamespace = "PropertyAlerts"
)
