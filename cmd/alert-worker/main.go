// Package main is the entrypoint for the Alert Worker Lambda function.
//
// The worker consumes ProcessTrigger messages from the trigger SQS queue and
// runs one process_alert_jobs batch per message through the scheduler
// Runner, so queue-driven, cron-driven and CLI runs share the job lock.
//
// Malformed messages are logged and acknowledged. Batch failures are
// reported as partial batch failures so SQS redelivers only those messages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"propertyalerts/internal/app"
	"propertyalerts/internal/queue"
	"propertyalerts/internal/scheduler"
	"propertyalerts/internal/types"
)

// Handler processes SQS trigger batches.
type Handler struct {
	runner scheduler.TaskRunner
	logger *slog.Logger
}

// Handle runs each trigger independently.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		if err := h.processMessage(ctx, record); err != nil {
			h.logger.ErrorContext(ctx, "failed to process trigger",
				"message_id", record.MessageId,
				"error", err.Error(),
			)
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
		}
	}
	return response, nil
}

func (h *Handler) processMessage(ctx context.Context, record events.SQSMessage) error {
	trigger, err := queue.DecodeTrigger(record.Body)
	if err != nil {
		// Redelivery cannot fix a bad body.
		h.logger.ErrorContext(ctx, "dropping malformed trigger",
			"message_id", record.MessageId,
			"error", err.Error(),
		)
		return nil
	}

	if trigger.TraceID != "" {
		ctx = types.WithTraceID(ctx, trigger.TraceID)
	}
	logger := h.logger.With(
		"message_id", record.MessageId,
		"reason", trigger.Reason,
		"job_id", trigger.JobID,
		"trace_id", trigger.TraceID,
	)

	result, err := h.runner.Run(ctx, scheduler.TaskPayload{
		Task:      scheduler.TaskProcessAlertJobs,
		BatchSize: trigger.BatchSize,
	})
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "trigger processed",
		"status", string(result.Status),
		"processed", result.Items,
	)
	return nil
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: loading configuration: %v\n", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.LogLevel)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	handler := &Handler{runner: a.Runner, logger: logger}
	logger.Info("alert worker initialized",
		"batch_size", cfg.Pipeline.BatchSize,
		"skip_duplicates", cfg.Pipeline.SkipDuplicates,
	)

	// Local mode: read a JSON SQS event from stdin.
	//   echo '{"Records":[{"messageId":"1","body":"{\"reason\":\"manual\"}"}]}' | go run ./cmd/alert-worker
	if cfg.IsLocal() {
		if err := runLocal(ctx, handler, os.Stdin, os.Stderr); err != nil {
			logger.Error("local run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(handler.Handle)
}

func runLocal(ctx context.Context, h *Handler, in io.Reader, out io.Writer) error {
	payload, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(payload) == 0 {
		return fmt.Errorf("no input received on stdin")
	}
	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(payload, &sqsEvent); err != nil {
		return fmt.Errorf("parse stdin as SQS event: %w", err)
	}
	response, err := h.Handle(ctx, sqsEvent)
	if err != nil {
		return err
	}
	if len(response.BatchItemFailures) > 0 {
		respJSON, _ := json.MarshalIndent(response, "", "  ")
		fmt.Fprintln(out, string(respJSON))
	}
	return nil
}
