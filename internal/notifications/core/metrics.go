package core

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"propertyalerts/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var (
	_ PipelineMetrics = (*CloudWatchPipelineMetrics)(nil)
	_ PipelineMetrics = NoopMetrics{}
)

// CloudWatchPipelineMetrics emits pipeline metrics to CloudWatch.
//
//   - AlertJobsProcessed: Dims {AlertType, Result}, once per job
//   - AlertMatches, AlertsSent, AlertAccessDenied: no dims, once per batch
//   - AlertDelivery: Dims {AlertType, Result}, once per dispatch attempt
//   - APILatency: Dims {Endpoint, Status}
type CloudWatchPipelineMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchPipelineMetrics publishes to namespace, or to
// types.MetricNamespace when empty.
func NewCloudWatchPipelineMetrics(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchPipelineMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchPipelineMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

func (m *CloudWatchPipelineMetrics) RecordJob(ctx context.Context, alertType types.AlertType, result MetricResult) {
	m.put(ctx, []cwtypes.MetricDatum{
		countDatum(types.MetricJobsProcessed, 1,
			dim(types.DimAlertType, string(alertType)),
			dim(types.DimResult, string(result)),
		),
	}, "metric", types.MetricJobsProcessed)
}

// RecordBatch emits the batch totals in a single call.
func (m *CloudWatchPipelineMetrics) RecordBatch(ctx context.Context, r types.BatchResult) {
	m.put(ctx, []cwtypes.MetricDatum{
		countDatum(types.MetricMatches, r.Matches),
		countDatum(types.MetricAlertsSent, r.AlertsSent),
		countDatum(types.MetricAccessDenied, r.AccessDenied),
	}, "metric", "batch")
}

func (m *CloudWatchPipelineMetrics) RecordDelivery(ctx context.Context, alertType types.AlertType, result MetricResult) {
	m.put(ctx, []cwtypes.MetricDatum{
		countDatum(types.MetricDeliveryAttempt, 1,
			dim(types.DimAlertType, string(alertType)),
			dim(types.DimResult, string(result)),
		),
	}, "metric", types.MetricDeliveryAttempt)
}

// RecordLatency records d in milliseconds.
func (m *CloudWatchPipelineMetrics) RecordLatency(ctx context.Context, endpoint string, status int, d time.Duration) {
	m.put(ctx, []cwtypes.MetricDatum{
		{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(d.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: []cwtypes.Dimension{
				dim(types.DimEndpoint, endpoint),
				dim(types.DimStatus, strconv.Itoa(status)),
			},
		},
	}, "metric", types.MetricAPILatency)
}

func (m *CloudWatchPipelineMetrics) put(ctx context.Context, data []cwtypes.MetricDatum, logArgs ...any) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to put metric data", append(logArgs, "error", err.Error())...)
	}
}

func countDatum(name string, value int, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(float64(value)),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: dims,
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// NoopMetrics discards everything. Used locally and when ENABLE_METRICS=false.
type NoopMetrics struct{}

func (NoopMetrics) RecordJob(context.Context, types.AlertType, MetricResult)      {}
func (NoopMetrics) RecordBatch(context.Context, types.BatchResult)                {}
func (NoopMetrics) RecordDelivery(context.Context, types.AlertType, MetricResult) {}
func (NoopMetrics) RecordLatency(context.Context, string, int, time.Duration)     {}
