package types

// SenderIdentity is the From address of an outbound email.
type SenderIdentity struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// SendInput is the provider-agnostic email request. TemplateID is used by
// providers with hosted templates (SendGrid); Subject and the rendered bodies
// are used by providers that send raw content (SES, stub).
type SendInput struct {
	To           string         `json:"to"`
	From         SenderIdentity `json:"from"`
	Subject      string         `json:"subject"`
	TemplateID   string         `json:"template_id,omitempty"`
	TemplateData map[string]any `json:"template_data"`
	BodyHTML     string         `json:"-"`
	BodyText     string         `json:"-"`
	// ReferenceID correlates provider events back to the alert record.
	ReferenceID string `json:"reference_id"`
}

// ProcessTrigger is the SQS payload asking a worker to run one batch.
type ProcessTrigger struct {
	Reason    string `json:"reason"`
	BatchSize int    `json:"batch_size,omitempty"`
	JobID     string `json:"job_id,omitempty"`
	TraceID   string `json:"trace_id"`
}

// Trigger reasons.
const (
	TriggerReasonRequeue  = "requeue"
	TriggerReasonSchedule = "schedule"
	TriggerReasonManual   = "manual"
)
