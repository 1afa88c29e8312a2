// Package scheduler runs the recurring alert tasks. The same Runner backs
// the cron entry point, the job-runner CLI and the alert worker.
package scheduler

import (
	"sort"
	"time"
)

// TaskType identifies a scheduled task.
type TaskType string

const (
	TaskProcessAlertJobs TaskType = "process_alert_jobs"
	TaskRequeueStaleJobs TaskType = "requeue_stale_alert_jobs"
)

var taskDescriptions = map[TaskType]string{
	TaskProcessAlertJobs: "Run one batch of pending property alert jobs",
	TaskRequeueStaleJobs: "Return alert jobs stuck in processing to pending",
}

// Describe returns the human description of t and whether t is known.
func Describe(t TaskType) (string, bool) {
	d, ok := taskDescriptions[t]
	return d, ok
}

// Tasks lists every known task in name order.
func Tasks() []TaskType {
	out := make([]TaskType, 0, len(taskDescriptions))
	for t := range taskDescriptions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TaskPayload is the input of one run.
//
//	{"task": "process_alert_jobs", "batch_size": 10}
type TaskPayload struct {
	Task TaskType `json:"task"`
	// BatchSize overrides the configured batch size when positive.
	BatchSize int `json:"batch_size,omitempty"`
	// ReferenceTime is recorded with the run; nil means now.
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
}

// RunStatus is the outcome recorded in job_history.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunSkipped RunStatus = "skipped"
)

// RunResult summarises one Run.
type RunResult struct {
	Task   TaskType  `json:"task"`
	Status RunStatus `json:"status"`
	Items  int       `json:"items"`
}
