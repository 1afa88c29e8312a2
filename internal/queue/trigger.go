// Package queue publishes ProcessTrigger messages to the alert trigger queue
// consumed by the alert worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"propertyalerts/internal/types"
)

// SQSSender abstracts SendMessage for testability.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// TriggerPublisher sends ProcessTrigger messages to a single queue.
type TriggerPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

func NewTriggerPublisher(client SQSSender, queueURL string, logger *slog.Logger) *TriggerPublisher {
	return &TriggerPublisher{client: client, queueURL: queueURL, logger: logger}
}

// Publish enqueues t. A missing TraceID is generated so the worker run can
// be correlated with the request that caused it.
func (p *TriggerPublisher) Publish(ctx context.Context, t types.ProcessTrigger) error {
	if t.TraceID == "" {
		t.TraceID = uuid.NewString()
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("queue: marshal trigger: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"reason": {
				DataType:    aws.String("String"),
				StringValue: aws.String(t.Reason),
			},
		},
	})
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamQueue, "failed to publish process trigger", err)
	}

	p.logger.InfoContext(ctx, "process trigger published",
		"reason", t.Reason,
		"job_id", t.JobID,
		"trace_id", t.TraceID,
	)
	return nil
}

// DecodeTrigger parses a trigger message body.
func DecodeTrigger(body string) (types.ProcessTrigger, error) {
	var t types.ProcessTrigger
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return t, types.NewAppError(types.ErrCodeValidationQuery, "malformed process trigger", err)
	}
	if t.BatchSize < 0 {
		return t, types.NewAppError(types.ErrCodeValidationBatchSize, "batch_size must not be negative", nil)
	}
	return t, nil
}
